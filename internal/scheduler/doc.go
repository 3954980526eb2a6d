// Package scheduler decides, turn by turn, who speaks next in a chat.
//
// # Decision Rules
//
// Selection evaluates an ordered rule chain; the first rule producing a
// decision short-circuits the rest:
//
//  1. single_participant: only one participant exists
//  2. explicit_with_deputy: explicit target with a registered deputy chain
//  3. explicit_target: explicit target alone
//  4. single_candidate: exactly one eligible candidate remains
//  5. open_question: the second-to-last message asked a question
//  6. mention_override: names in the latest message, last-mentioned first
//  7. configured_rotation: round-robin or uniform-random session modes
//  8. moderator: model-assisted pick over the recent message window
//  9. random_fallback: one uniformly-random eligible candidate
//
// Rules 1-8 are deterministic given identical snapshots, except rule 7's
// random mode. Rule 8 is best-effort: dispatch failures and timeouts are
// absorbed so callers only ever see a turn decision, never a dispatch
// error. Rule 9 guarantees liveness.
//
// # Eligibility
//
// The candidate set is the chat's participants minus explicit exclusions,
// internal shell companions, disabled companions, and the last speaker
// (unless the chat allows immediate repeats or no last speaker is known).
package scheduler
