package engine

import "errors"

// Fatal error kinds. Anything else that goes wrong mid-pass (unlock,
// lock, group membership, ACL grants) is logged with its username,
// action and category, then skipped; the next invocation retries it
// from scratch.
var (
	// ErrAccountCreate marks a failed account creation or home
	// provisioning. Provisioning a required account is correctness
	// critical, so the run aborts with no tolerable partial state.
	ErrAccountCreate = errors.New("account provisioning failed")

	// ErrGroupCreate marks a failed category group creation; account
	// creation cannot proceed without the group.
	ErrGroupCreate = errors.New("group creation failed")
)
