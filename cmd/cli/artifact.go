package cli

import (
	"os"

	"github.com/canopy-network/smtkv/contract"
	"github.com/canopy-network/smtkv/host"
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/smt"
	"github.com/spf13/cobra"
)

// verification is what the verify commands print
type verification struct {
	ExitCode int8         `json:"exitCode"`
	Error    string       `json:"error,omitempty"`
	Report   *host.Report `json:"report"`
}

var (
	proveCmd = &cobra.Command{
		Use:   "prove <key>...",
		Short: "print the hex encoded data with proof of the keys against the current root",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			keys := make([][]byte, len(args))
			for i, a := range args {
				key, err := parseInput(a)
				if err != nil {
					writeToConsole(nil, err)
				}
				keys[i] = key
			}
			dwp, err := generator.DataWithProof(keys)
			if err != nil {
				writeToConsole(nil, err)
			}
			writeToConsole(lib.BytesToString(dwp.Bytes()), nil)
		},
	}

	commitCmd = &cobra.Command{
		Use:   "commit <changes.json>",
		Short: "apply a change set and print the hex encoded update; the file is [{\"key\": hex, \"value\": hex or null}]",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			bz, e := os.ReadFile(args[0])
			if e != nil {
				writeToConsole(nil, lib.ErrReadFile(e))
			}
			var changes []smt.KeyValue
			if err := lib.UnmarshalJSON(bz, &changes); err != nil {
				writeToConsole(nil, err)
			}
			for _, c := range changes {
				if prev, had := generator.AppendChange(c.Key, c.Value); had {
					l.Warnf("Key %s staged twice, %s replaced by %s", c.Key, prev, c.Value)
				}
			}
			update, err := generator.CommitChanges()
			if err != nil {
				writeToConsole(nil, err)
			}
			l.Infof("Committed %d changes, new root %s", len(update.Changes), update.NewRoot)
			writeToConsole(lib.BytesToString(update.Bytes()), nil)
		},
	}

	applyCmd = &cobra.Command{
		Use:   "apply <update hex>",
		Short: "replay the new values of an update produced by another generator",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			update, err := decodeUpdate(args[0])
			if err != nil {
				writeToConsole(nil, err)
			}
			if err = generator.ApplyUpdate(update); err != nil {
				writeToConsole(nil, err)
			}
			root, err := generator.Root()
			writeToConsole(root.String(), err)
		},
	}

	verifyDataCmd = &cobra.Command{
		Use:   "verify-data <root hex> <data with proof hex>",
		Short: "run the data with proof through the check data validator against the root",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			root, err := decodeRoot(args[0])
			if err != nil {
				writeToConsole(nil, err)
			}
			bz, err := lib.StringToBytes(args[1])
			if err != nil {
				writeToConsole(nil, err)
			}
			dwp, err := smt.NewDataWithProofFromBytes(bz)
			if err != nil {
				writeToConsole(nil, err)
			}
			chain := newChain()
			tx, err := chain.SpendWithData(root, dwp)
			writeToConsole(verify(chain, tx, err), nil)
		},
	}

	verifyUpdateCmd = &cobra.Command{
		Use:   "verify-update <old root hex> <update hex>",
		Short: "run the update through the kv store validator from the old root",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			oldRoot, err := decodeRoot(args[0])
			if err != nil {
				writeToConsole(nil, err)
			}
			update, err := decodeUpdate(args[1])
			if err != nil {
				writeToConsole(nil, err)
			}
			chain := newChain()
			tx, err := chain.UpdateRecord(oldRoot, update)
			writeToConsole(verify(chain, tx, err), nil)
		},
	}
)

// newChain() creates the mock chain the verify commands run on
func newChain() *contract.Chain {
	chain, err := contract.NewChain(metrics, l)
	if err != nil {
		writeToConsole(nil, err)
	}
	return chain
}

// verify() runs the transaction and collects the exit code the validators produce
func verify(chain *contract.Chain, tx *host.Transaction, err lib.ErrorI) *verification {
	if err != nil {
		writeToConsole(nil, err)
	}
	report, err := chain.Verify(tx)
	v := &verification{ExitCode: lib.ExitCode(err), Report: report}
	if err != nil {
		v.Error = err.Error()
		if dump, e := chain.Context().DumpTx(tx); e == nil {
			l.Debugf("Rejected transaction:\n%s", dump)
		}
	}
	return v
}

// decodeRoot() parses a hex encoded root
func decodeRoot(s string) (smt.H256, lib.ErrorI) {
	bz, err := lib.StringToBytes(s)
	if err != nil {
		return smt.Zero, err
	}
	return smt.NewH256(bz)
}

// decodeUpdate() parses a hex encoded update
func decodeUpdate(s string) (*smt.Update, lib.ErrorI) {
	bz, err := lib.StringToBytes(s)
	if err != nil {
		return nil, err
	}
	return smt.NewUpdateFromBytes(bz)
}
