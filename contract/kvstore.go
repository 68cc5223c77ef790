package contract

import (
	"bytes"

	"github.com/canopy-network/smtkv/host"
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/crypto"
	"github.com/canopy-network/smtkv/smt"
)

/*
	KVStore guards a record whose data is the root of a key value tree.
	The operation is recognized by how many cells carrying this script are consumed and created:

	inputs outputs   operation
	  0      1       create: the record id must be the unique id and the root must be the empty root
	  1      0       destroy: always allowed
	  1      1       update: the witness of the output carries an Update from the input root to the output root
	  *      *       anything else is rejected
*/

const (
	// KVStoreName is the name the kv store validator is deployed under
	KVStoreName = "kvstore"
	// RootSize is the size of the data of a root bearing record and of script args holding a hash
	RootSize = crypto.HashSize
)

var _ host.ValidatorI = &KVStore{}

// KVStore is the transition validator of the key value record
type KVStore struct {
	verifier smt.ProofVerifierI
	log      lib.LoggerI
}

// NewKVStore() creates a kv store validator with the default proof verifier
func NewKVStore(log lib.LoggerI) *KVStore {
	return NewKVStoreWithVerifier(smt.DefaultVerifier{}, log)
}

// NewKVStoreWithVerifier() creates a kv store validator with an injected proof verifier
func NewKVStoreWithVerifier(verifier smt.ProofVerifierI, log lib.LoggerI) *KVStore {
	return &KVStore{verifier: verifier, log: log.WithModule(string(lib.KVStoreModule))}
}

// Validate() recognizes the operation and checks it
func (k *KVStore) Validate(view host.TxViewI) lib.ErrorI {
	scriptHash := view.ScriptHash()
	k.log.Debugf("script hash = %s", lib.BytesToString(scriptHash))
	inputs, err := indexesOfType(view, host.SourceInput, scriptHash)
	if err != nil {
		return err
	}
	outputs, err := indexesOfType(view, host.SourceOutput, scriptHash)
	if err != nil {
		return err
	}
	k.log.Debugf("cells in inputs: %v, cells in outputs: %v", inputs, outputs)
	switch {
	case len(inputs) == 0 && len(outputs) == 1:
		k.log.Debug("create a record")
		return k.create(view, outputs[0])
	case len(inputs) == 1 && len(outputs) == 0:
		k.log.Debug("destroy the record")
		return nil
	case len(inputs) == 1 && len(outputs) == 1:
		k.log.Debug("update the record")
		return k.update(view, inputs[0], outputs[0])
	default:
		k.log.Debugf("unknown operation: %d inputs and %d outputs", len(inputs), len(outputs))
		return ErrUnknownOperation(len(inputs), len(outputs))
	}
}

// create() checks a new record: the id it is created with and its empty initial root
func (k *KVStore) create(view host.TxViewI, index int) lib.ErrorI {
	k.log.Debugf("create at outputs[%d]", index)
	args := view.ScriptArgs()
	if len(args) != RootSize {
		return ErrCreateInvalidArgsLength(len(args))
	}
	id, err := loadUniqueID(view, index)
	if err != nil {
		return err
	}
	if !bytes.Equal(id, args) {
		return ErrCreateIncorrectUniqueId()
	}
	data, err := view.CellData(index, host.SourceOutput)
	if err != nil {
		return err
	}
	if len(data) != RootSize {
		return ErrCreateInitializedDataInvalidLength(len(data))
	}
	if !bytes.Equal(data, smt.Zero[:]) {
		return ErrCreateInitializedDataNotEmpty()
	}
	return nil
}

// update() checks that the witness of the output proves the transition from the input root to the output root
func (k *KVStore) update(view host.TxViewI, inputIndex, outputIndex int) lib.ErrorI {
	k.log.Debugf("update from inputs[%d] to outputs[%d]", inputIndex, outputIndex)
	inputData, err := view.CellData(inputIndex, host.SourceInput)
	if err != nil {
		return err
	}
	if len(inputData) != RootSize {
		return ErrUpdateInputDataInvalidLength(len(inputData))
	}
	outputData, err := view.CellData(outputIndex, host.SourceOutput)
	if err != nil {
		return err
	}
	if len(outputData) != RootSize {
		return ErrUpdateOutputDataInvalidLength(len(outputData))
	}
	k.log.Debugf("load the update from witnesses[%d]", outputIndex)
	witness, err := view.WitnessArgs(outputIndex, host.SourceOutput)
	if err != nil {
		return err
	}
	if witness.OutputType == nil {
		return ErrUpdateWitnessIsNotExisted(outputIndex)
	}
	update, err := smt.NewUpdateFromBytes(witness.OutputType)
	if err != nil {
		return err
	}
	if !bytes.Equal(update.NewRoot[:], outputData) {
		return ErrUpdateNewRootIsMismatch()
	}
	oldRoot, err := smt.NewH256(inputData)
	if err != nil {
		return err
	}
	k.log.Debugf("verify the update from %s to %s", oldRoot, update.NewRoot)
	return smt.VerifyTransition(k.verifier, oldRoot, update)
}

// UniqueID() returns the id a record created at the output index must carry in its script args
func UniqueID(firstInput *host.CellInput, outputIndex int) []byte {
	return crypto.UniqueID(firstInput.Bytes(), uint64(outputIndex))
}

// loadUniqueID() derives the unique id from the first input of the transaction
func loadUniqueID(view host.TxViewI, outputIndex int) ([]byte, lib.ErrorI) {
	input, err := view.Input(0)
	if err != nil {
		return nil, err
	}
	return UniqueID(input, outputIndex), nil
}

// indexesOfType() lists the cells of the source whose type script hash is the script hash
func indexesOfType(view host.TxViewI, src host.Source, scriptHash []byte) (indexes []int, err lib.ErrorI) {
	indexes = make([]int, 0)
	for i := 0; i < view.Len(src); i++ {
		typeHash, ok, e := view.TypeHash(i, src)
		if e != nil {
			return nil, e
		}
		if ok && bytes.Equal(typeHash, scriptHash) {
			indexes = append(indexes, i)
		}
	}
	return
}
