// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ident

import (
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ProgramID is mixed into every derived address so that derivations for this
// program never collide with another program's.
var ProgramID = BytesToAddress([]byte("tierstake/staking"))

var errBumpNotFound = errors.New("unable to find a viable bump")

// Blake2b computes blake2b-256 checksum for given data.
func Blake2b(data ...[]byte) [32]byte {
	hash, _ := blake2b.New256(nil)
	for _, b := range data {
		hash.Write(b)
	}
	var out [32]byte
	hash.Sum(out[:0])
	return out
}

// CreateDerived computes the program-derived address for the given seeds and bump.
// It fails when the digest falls into the half of the address space reserved for
// signer keys, i.e. the high bit of the first byte is set.
func CreateDerived(bump uint8, seeds ...[]byte) (Address, error) {
	data := make([][]byte, 0, len(seeds)+2)
	data = append(data, seeds...)
	data = append(data, []byte{bump}, ProgramID.Bytes())

	digest := Blake2b(data...)
	if digest[0]&0x80 != 0 {
		return Address{}, errBumpNotFound
	}
	return BytesToAddress(digest[12:]), nil
}

// FindDerived searches bumps from 255 downwards and returns the first one that
// yields a valid derived address.
func FindDerived(seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateDerived(uint8(bump), seeds...)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return Address{}, 0, errBumpNotFound
}
