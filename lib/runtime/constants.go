// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

// APIID is the 8 byte identifier of a runtime api group.
type APIID [8]byte

func (id APIID) String() string {
	return string(id[:])
}

var (
	// CoreAPIID is the id of the Core api. The Core api is always
	// present; it is listed only to declare a revision above 1.
	CoreAPIID = APIID{'c', 'o', 'r', 'e', '_', '_', '_', '_'}
	// BlockBuilderAPIID is the id of the BlockBuilder api.
	BlockBuilderAPIID = APIID{'b', 'l', 'k', 'b', 'u', 'i', 'l', 'd'}
	// TaggedTransactionQueueAPIID is the id of the TaggedTransactionQueue api.
	TaggedTransactionQueueAPIID = APIID{'v', 'a', 'l', 'i', 'd', 'a', 't', 'x'}
	// MetadataAPIID is the id of the Metadata api.
	MetadataAPIID = APIID{'m', 'e', 't', 'a', 'd', 'a', 't', 'a'}
	// GrandpaAPIID is the id of the GrandpaApi api.
	GrandpaAPIID = APIID{'f', 'g', 'r', 'a', 'n', 'd', 'p', 'a'}
)

const (
	// CoreVersion is the runtime API call Core_version
	CoreVersion = "Core_version"
	// CoreAuthorities is the runtime API call Core_authorities
	CoreAuthorities = "Core_authorities"
	// CoreExecuteBlock is the runtime API call Core_execute_block
	CoreExecuteBlock = "Core_execute_block"
	// CoreInitialiseBlock is the runtime API call Core_initialise_block (Core revision 1)
	CoreInitialiseBlock = "Core_initialise_block"
	// CoreInitializeBlock is the runtime API call Core_initialize_block (Core revision 2)
	CoreInitializeBlock = "Core_initialize_block"
	// BlockBuilderApplyExtrinsic is the runtime API call BlockBuilder_apply_extrinsic
	BlockBuilderApplyExtrinsic = "BlockBuilder_apply_extrinsic"
	// BlockBuilderFinaliseBlock is the runtime API call BlockBuilder_finalise_block (BlockBuilder revision 1)
	BlockBuilderFinaliseBlock = "BlockBuilder_finalise_block"
	// BlockBuilderFinalizeBlock is the runtime API call BlockBuilder_finalize_block (BlockBuilder revision 2)
	BlockBuilderFinalizeBlock = "BlockBuilder_finalize_block"
	// BlockBuilderInherentExtrinsics is the runtime API call BlockBuilder_inherent_extrinsics
	BlockBuilderInherentExtrinsics = "BlockBuilder_inherent_extrinsics"
	// BlockBuilderCheckInherents is the runtime API call BlockBuilder_check_inherents
	BlockBuilderCheckInherents = "BlockBuilder_check_inherents"
	// BlockBuilderRandomSeed is the runtime API call BlockBuilder_random_seed
	BlockBuilderRandomSeed = "BlockBuilder_random_seed"
	// TaggedTransactionQueueValidateTransaction is the runtime API call TaggedTransactionQueue_validate_transaction
	TaggedTransactionQueueValidateTransaction = "TaggedTransactionQueue_validate_transaction"
	// Metadata is the runtime API call Metadata_metadata
	Metadata = "Metadata_metadata"
	// GrandpaPendingChange is the runtime API call GrandpaApi_grandpa_pending_change
	GrandpaPendingChange = "GrandpaApi_grandpa_pending_change"
	// GrandpaAuthorities is the runtime API call GrandpaApi_grandpa_authorities
	GrandpaAuthorities = "GrandpaApi_grandpa_authorities"
)

// Inherent positions. Inherent extrinsics must be placed at these
// indices of the block body.
const (
	TimestampSetPosition = 0
	NoteOfflinePosition  = 1
)
