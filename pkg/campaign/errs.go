package campaign

import "errors"

var (
	// ErrCampaignMismatch indicates the results folder already holds a
	// campaign for another program or script.
	ErrCampaignMismatch = errors.New("campaign: results folder belongs to another campaign")

	// ErrMissingResult indicates that a (configuration, repetition) pair has
	// no stored result.
	ErrMissingResult = errors.New("campaign: missing result")

	// ErrBadRuns indicates a non-positive repetition count.
	ErrBadRuns = errors.New("campaign: runs must be > 0")

	// ErrNoFolder indicates an empty results folder path.
	ErrNoFolder = errors.New("campaign: no results folder")
)
