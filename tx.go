// Copyright (C) 2021-2025, Conflux Foundation. All rights reserved.
// Licensed under the Apache License, Version 2.0

package conflux

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Transaction is an unsigned Conflux transaction ready for device signing.
// The variants differ in their signing payload layout and in the minimum app
// version able to display them.
type Transaction interface {
	// encodeForSigning returns the exact byte stream the device hashes.
	encodeForSigning() ([]byte, error)
	// minVersion is the lowest app version that understands the layout.
	minVersion() [3]byte
}

// AccessTuple is one entry of a CIP-2930 access list.
type AccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

// AccessList is a CIP-2930 access list.
type AccessList []AccessTuple

// LegacyTransaction is a pre-CIP-1559 Conflux transaction.
type LegacyTransaction struct {
	Nonce        uint64
	GasPrice     *big.Int
	Gas          uint64
	To           *common.Address
	Value        *big.Int
	StorageLimit uint64
	EpochHeight  uint64
	ChainID      uint64
	Data         []byte
}

func (tx *LegacyTransaction) encodeForSigning() ([]byte, error) {
	raw, err := rlp.EncodeToBytes([]interface{}{
		tx.Nonce, tx.GasPrice, tx.Gas, tx.To, tx.Value,
		tx.StorageLimit, tx.EpochHeight, tx.ChainID, tx.Data,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode legacy transaction")
	}
	return raw, nil
}

func (tx *LegacyTransaction) minVersion() [3]byte {
	return [3]byte{1, 0, 0}
}

// DynamicFeeTransaction is a CIP-1559 typed Conflux transaction. Its signing
// payload is the "cfx" marker, the transaction type byte and the RLP list.
type DynamicFeeTransaction struct {
	ChainID              uint64
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	Gas                  uint64
	To                   *common.Address
	Value                *big.Int
	StorageLimit         uint64
	EpochHeight          uint64
	AccessList           AccessList
	Data                 []byte
}

const dynamicFeeTxType = 0x02

func (tx *DynamicFeeTransaction) encodeForSigning() ([]byte, error) {
	raw, err := rlp.EncodeToBytes([]interface{}{
		tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas,
		tx.Gas, tx.To, tx.Value, tx.StorageLimit, tx.EpochHeight,
		tx.AccessList, tx.Data,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode dynamic-fee transaction")
	}
	payload := append([]byte("cfx"), dynamicFeeTxType)
	return append(payload, raw...), nil
}

func (tx *DynamicFeeTransaction) minVersion() [3]byte {
	return [3]byte{2, 0, 0}
}
