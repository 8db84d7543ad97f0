// Package errors provides the classified error type used across sprokkel.
//
// A build failure is a ClassifiedError with a category naming the pipeline part that failed,
// a severity, and context such as the entry path or link target. Errors are created with the
// fluent ErrorBuilder:
//
//	err := errors.LinkError("unresolved internal link").
//		WithContext("path", entry.SourcePath).
//		WithContext("target", raw).
//		Build()
//
// BuildFailure aggregates every error of one build. CLIErrorAdapter maps errors to exit codes
// and terminal output.
package errors
