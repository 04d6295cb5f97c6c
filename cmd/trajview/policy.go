package main

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/oxygene76/trajview/pkg/trajectory"
	"github.com/oxygene76/trajview/pkg/utils"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newPolicy builds the retry policy named in the config. The returned closer
// releases resources held by the policy.
func newPolicy(cfg utils.RetryConfig, dir string, logger zerolog.Logger) (trajectory.Policy, io.Closer, error) {
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return nil, nil, err
	}
	maxInterval, err := cfg.MaxIntervalDuration()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Policy {
	case utils.PolicyNone:
		return trajectory.NoWait(), nopCloser{}, nil
	case utils.PolicyFixed:
		return trajectory.FixedDelay(interval), nopCloser{}, nil
	case utils.PolicyLinear:
		return trajectory.Linear(interval, maxInterval), nopCloser{}, nil
	case utils.PolicyWatch:
		fallback := maxInterval
		if fallback == 0 {
			fallback = interval
		}
		p, err := trajectory.NewWatchPolicy(dir, fallback, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return trajectory.ExponentialBackoff(interval, maxInterval), nopCloser{}, nil
	}
}

// newFetcher wires the configured retry policy and logger into a fetcher.
func (a *app) newFetcher(dir string, opts ...trajectory.Option) (*trajectory.Fetcher, io.Closer, error) {
	policy, closer, err := newPolicy(a.cfg.Retry, dir, a.logger)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]trajectory.Option{
		trajectory.WithPolicy(policy),
		trajectory.WithLogger(a.logger),
		trajectory.WithLogEvery(a.cfg.Retry.LogEvery),
	}, opts...)

	return trajectory.NewFetcher(opts...), closer, nil
}
