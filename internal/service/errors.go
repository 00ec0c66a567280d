package service

import "errors"

var (
	// ErrWorkspaceNotFound indicates an unknown workspace id.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrReportNotFound indicates an unknown report id.
	ErrReportNotFound = errors.New("report not found")

	// ErrInvalidReportType indicates a report type outside the catalog.
	ErrInvalidReportType = errors.New("invalid report type")

	// ErrInvalidInput indicates report inputs that cannot be fingerprinted.
	ErrInvalidInput = errors.New("invalid report input")

	// ErrInsufficientCredits indicates the workspace balance cannot cover
	// the report cost.
	ErrInsufficientCredits = errors.New("insufficient report credits")

	// ErrMonthlyLimitReached indicates the plan's monthly report cap is
	// exhausted.
	ErrMonthlyLimitReached = errors.New("monthly report limit reached")

	// ErrUnknownPack indicates a credit pack outside the catalog.
	ErrUnknownPack = errors.New("unknown credit pack")

	// ErrUnknownPlan indicates a plan outside the catalog.
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrAdAccountNotFound indicates an unknown or foreign ad account id.
	ErrAdAccountNotFound = errors.New("ad account not found")
)
