package models

import "errors"

var (
	// ErrUpstreamDataUnavailable means the market data gateway failed or
	// returned too little data to analyze. Surfaced to callers.
	ErrUpstreamDataUnavailable = errors.New("upstream market data unavailable")

	// ErrNoCandidateLevels means every fallback tier of the level resolver
	// came up empty. Logged as a data-quality event; the request proceeds
	// with the reasoning step told explicitly that levels are unavailable.
	ErrNoCandidateLevels = errors.New("no candidate levels available")

	// ErrReasoningUnavailable means the reasoning step kept returning
	// malformed or contract-violating output after retries. The request
	// fails; no fallback scenario is fabricated in its place.
	ErrReasoningUnavailable = errors.New("scenario reasoning unavailable")
)
