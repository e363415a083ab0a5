package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeMissingPrice:           "No USD price for a required asset type",
	CodeCyclicDependencyGraph:  "Obligation graph contains a cycle",
	CodeMissingReference:       "Reference to an unknown entity, asset, or pool",
	CodeShortfallDistribution:  "Shortfall distribution failed",
	CodeSolvencyAnalysisFailed: "Solvency analysis failed",

	CodeSnapshotLoadFailed:   "Failed to load entity snapshot",
	CodeSnapshotInvalid:      "Entity snapshot failed validation",
	CodeBalanceRefreshFailed: "On-chain balance refresh failed",

	CodePriceFeedError:       "Price feed request failed",
	CodePriceFeedRateLimited: "Price feed rate limit exceeded",
	CodeInvalidPrice:         "Price feed returned a non-positive price",

	CodeRPCConnectionFailed: "Failed to connect to chain RPC node",
	CodeContractCallFailed:  "Smart contract call failed",

	CodeRunStoreFailed: "Failed to persist analysis run",

	CodeCircuitOpen: "Circuit breaker is open",
}
