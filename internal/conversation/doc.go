// Package conversation orchestrates chat turns between users and the assistant runtime.
//
// A turn (Service.Converse) runs these steps in order:
//
//  1. Reject an empty message with *ValidationError
//  2. Create a new remote thread and link it to the owner, or resolve the
//     given thread id scoped to the owner (ErrThreadNotFound otherwise)
//  3. Append the user message
//  4. Probe the configured assistant (*AssistantUnavailableError on failure)
//  5. Start a run and poll it to completion
//  6. List messages and extract the newest assistant text
//  7. Update the thread's activity timestamp, ignoring failures
//
// The steps are not transactional. The service holds no state of its own;
// threads live in the store and messages live in the runtime.
package conversation
