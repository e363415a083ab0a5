package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Solvency analysis error codes
const (
	// Core engine errors. Both abort the run with no partial result.
	CodeMissingPrice           Code = "MISSING_PRICE"
	CodeCyclicDependencyGraph  Code = "CYCLIC_DEPENDENCY_GRAPH"
	CodeMissingReference       Code = "MISSING_REFERENCE"
	CodeShortfallDistribution  Code = "SHORTFALL_DISTRIBUTION_ERROR"
	CodeSolvencyAnalysisFailed Code = "SOLVENCY_ANALYSIS_FAILED"

	// Snapshot / inventory errors
	CodeSnapshotLoadFailed   Code = "SNAPSHOT_LOAD_FAILED"
	CodeSnapshotInvalid      Code = "SNAPSHOT_INVALID"
	CodeBalanceRefreshFailed Code = "BALANCE_REFRESH_FAILED"

	// Price feed errors
	CodePriceFeedError       Code = "PRICE_FEED_ERROR"
	CodePriceFeedRateLimited Code = "PRICE_FEED_RATE_LIMITED"
	CodeInvalidPrice         Code = "INVALID_PRICE"

	// Chain RPC errors
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"

	// Persistence errors
	CodeRunStoreFailed Code = "RUN_STORE_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
