// Package services defines the business logic for members, teams,
// articles, comments, records, ranking, and recommendations. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Member / auth errors.
var (
	// ErrMemberNotFound indicates that the requested member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrDuplicateUsername is returned when a signup reuses an existing username.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrDuplicateEmail is returned when a signup reuses an existing email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrVerifyCodeMismatch is returned when the signup verification code
	// is missing, expired, or does not match the issued one.
	ErrVerifyCodeMismatch = errors.New("verification code mismatch")

	// ErrInvalidCredentials is returned on login with a wrong username or
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Ranking errors.
var (
	// ErrInvalidExpDelta is returned when an exp award is zero or negative.
	ErrInvalidExpDelta = errors.New("exp delta must be positive")

	// ErrMemberNotRanked indicates the member has no resolvable score in
	// either the cache or the durable store.
	ErrMemberNotRanked = errors.New("member has no ranking yet")
)

// Team errors.
var (
	// ErrTeamNotFound indicates that the requested team does not exist.
	ErrTeamNotFound = errors.New("team not found")

	// ErrNotTeamLeader is returned when a member attempts a leader-only
	// operation on a team they do not lead.
	ErrNotTeamLeader = errors.New("not the team leader")

	// ErrAlreadyTeamMember is returned when inviting a member who already
	// belongs to the team.
	ErrAlreadyTeamMember = errors.New("member already on the team")

	// ErrNotTeamMember is returned when removing a member who is not on
	// the team.
	ErrNotTeamMember = errors.New("member not on the team")
)

// Article / comment errors.
var (
	// ErrArticleNotFound indicates that the requested article does not
	// exist or is not accessible.
	ErrArticleNotFound = errors.New("article not found")

	// ErrNotArticleOwner is returned when a member mutates an article they
	// do not own.
	ErrNotArticleOwner = errors.New("not the article owner")

	// ErrAlreadyLiked is returned when a member likes an article twice.
	ErrAlreadyLiked = errors.New("article already liked")

	// ErrEmptyContent is returned when an article or comment body is blank.
	ErrEmptyContent = errors.New("content is empty")

	// ErrCommentNotFound indicates that the requested comment does not
	// exist or is not accessible.
	ErrCommentNotFound = errors.New("comment not found")
)

// Record errors.
var (
	// ErrRecordNotFound indicates that the record does not exist, is not
	// owned by the caller, or was already completed.
	ErrRecordNotFound = errors.New("record not found or already completed")
)
