package composer

import (
	sdkerrors "cosmossdk.io/errors"
)

// ErrUnknownPolicy wraps a decentralized_policy name the composer does not
// recognize — LoadExperiment already rejects this, but buildPolicy keeps its
// own sentinel so a future policy addition that forgets to update both
// places fails loudly instead of silently falling back to PureLocal.
var ErrUnknownPolicy = sdkerrors.Register("composer", 2, "unknown bid policy")
