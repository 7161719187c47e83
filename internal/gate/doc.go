// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate implements the password check that stands in front of a
// gatechat session.
//
// The gate is a deterrent, not a security boundary. It stores a DJB2 digest
// of the password next to a "set" marker and compares digests on unlock.
// Nothing it protects is encrypted.
//
// # States
//
//	LockedUnset --Submit(new password)--> Unlocked
//	LockedSet   --Submit(match)---------> Unlocked
//	Unlocked    --Reset()---------------> LockedUnset
//
// Every process starts locked. Entering Unlocked runs the unlock hook once.
//
// # Usage
//
//	g := gate.New(store, log)
//	g.OnUnlock(func() { repo.Hydrate() })
//	fmt.Println(g.Prompt())
//	if err := g.Submit(input); errors.Is(err, gate.ErrIncorrectPassword) {
//		// show hint, stay locked
//	}
package gate
