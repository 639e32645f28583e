package models

import "errors"

var (
	// ErrMissingIdentity means the page carries no canonical og:url meta tag,
	// so no record can be produced from it at all.
	ErrMissingIdentity = errors.New("campaign page has no canonical url")

	// ErrMalformedTier means a pledge element has no tier id. The tier is
	// dropped; the rest of the campaign still extracts.
	ErrMalformedTier = errors.New("pledge tier has no id")

	// ErrNoDigits means a text held no digits at all. Callers must treat the
	// field as not observable, never as zero.
	ErrNoDigits = errors.New("no digits found")

	// ErrDeletedOrHidden marks a deleted account, hidden project or 404 page.
	// It is a terminal skip outcome, not a failure: the caller records the
	// identifier in the deleted/hidden table and moves on.
	ErrDeletedOrHidden = errors.New("page is deleted or hidden")
)
