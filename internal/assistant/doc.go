// Package assistant wraps the hosted assistant runtime.
//
// # Client
//
// OpenAIClient implements Client on top of the OpenAI Assistants (beta) API:
//
//	client := assistant.NewOpenAIClient(assistant.Options{APIKey: key}, logger)
//	threadID, err := client.CreateThread(ctx)
//
// Run status is resolved by listing the thread's ten most recent runs and
// matching the id. A run outside that window is reported as ErrRunNotFound.
//
// # Poller
//
// Poller checks a run immediately and then once per interval until it
// completes, fails or exhausts its attempts:
//
//   - completed: the run is returned
//   - failed, cancelled, expired: *RunFailedError with the run's last error
//   - attempts exhausted: *RunTimeoutError
//
// # Extraction
//
// ExtractReply takes messages newest first and returns the first text block
// of the newest assistant message, or FallbackReply when it has none.
package assistant
