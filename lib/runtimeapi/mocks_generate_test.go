// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtimeapi

//go:generate mockgen -destination=mock_state_test.go -package $GOPACKAGE . BlockState,StorageState
//go:generate mockgen -destination=mock_executor_test.go -package $GOPACKAGE github.com/ChainSafe/rtapi/lib/runtime Executor
