package service

import (
	"errors"

	"go-bazaar-admin/internal/apperror"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = apperror.New(apperror.NotFound, "USER_NOT_FOUND", "user not found")
	ErrInvalidCredentials = apperror.New(apperror.Unauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	ErrEmailTaken         = apperror.New(apperror.Conflict, "EMAIL_TAKEN", "email is already registered")
	ErrUsernameTaken      = apperror.New(apperror.Validation, "USERNAME_TAKEN", "username is already taken")
	ErrNothingToUpdate    = apperror.New(apperror.Validation, "NOTHING_TO_UPDATE", "no changes requested")

	ErrInvalidAction        = apperror.New(apperror.Validation, "INVALID_ACTION", "action must be accept or reject")
	ErrMissingToken         = apperror.New(apperror.Validation, "MISSING_TOKEN", "token is required")
	ErrRegistrationNotFound = apperror.New(apperror.NotFound, "REGISTRATION_NOT_FOUND", "pending registration not found")
	ErrDecisionExpired      = apperror.New(apperror.InvalidOrExpired, "DECISION_EXPIRED", "decision link has expired")
	ErrInvalidResetToken    = apperror.New(apperror.InvalidOrExpired, "INVALID_RESET_TOKEN", "reset token is invalid or expired")
	ErrInvalidEmailToken    = apperror.New(apperror.InvalidOrExpired, "INVALID_EMAIL_TOKEN", "email verification token is invalid or expired")

	ErrProductNotFound = apperror.New(apperror.NotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrAmbiguousName   = apperror.New(apperror.Conflict, "AMBIGUOUS_PRODUCT_NAME", "more than one product has this name")
	ErrEmptySearch     = apperror.New(apperror.Validation, "EMPTY_SEARCH", "search term is required")
	ErrNoMatches       = apperror.New(apperror.NotFound, "NO_MATCHING_PRODUCTS", "no products match the search")
	ErrNoProducts      = apperror.New(apperror.NotFound, "NO_PRODUCTS", "no products to export")
	ErrMissingName     = apperror.New(apperror.Validation, "MISSING_NAME", "name is required")

	ErrLogNotFound    = apperror.New(apperror.NotFound, "LOG_NOT_FOUND", "log entry not found")
	ErrNotADelete     = apperror.New(apperror.Validation, "NOT_A_DELETE", "only DELETE entries can be undone")
	ErrMissingData    = apperror.New(apperror.Validation, "MISSING_DATA", "log entry has no price to restore")
	ErrAlreadyApplied = apperror.New(apperror.Conflict, "ALREADY_APPLIED", "this delete has already been undone")
)

// internalError logs a storage or infrastructure failure and hides it from the caller
func internalError(log *zap.Logger, op string, err error) error {
	log.Error(op+" failed", zap.Error(err))
	return apperror.NewInternal(err)
}

// passThrough keeps business errors raised inside a transaction and turns anything else into Internal
func passThrough(log *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return internalError(log, op, err)
}
