// Package campaign implements outreach campaign authoring and dispatch.
//
// Dispatch turns a drafted campaign into queued outbound emails: it
// resolves a sending identity, claims the campaign via a conditional
// status update (the single-flight serialization point), filters pending
// sends against the company suppression list, renders per-recipient
// content, and writes queue items for the delivery worker.
//
// The service layer depends only on the Repository interface defined in
// this package and never imports from api/. Repository implementations
// live in repository/postgres/.
package campaign
