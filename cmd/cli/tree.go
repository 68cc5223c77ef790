package cli

import (
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/smt"
	"github.com/spf13/cobra"
)

var (
	rootHashCmd = &cobra.Command{
		Use:   "root",
		Short: "print the current root of the tree",
		Run: func(cmd *cobra.Command, args []string) {
			root, err := generator.Root()
			writeToConsole(root.String(), err)
		},
	}

	getCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "print the committed value of a key; 'none' if unassigned",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			key, err := parseInput(args[0])
			if err != nil {
				writeToConsole(nil, err)
			}
			value, err := generator.Get(key)
			writeToConsole(value.String(), err)
		},
	}

	setCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "immediately assign a value to a key and print the new root",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			key, err := parseInput(args[0])
			if err != nil {
				writeToConsole(nil, err)
			}
			value, err := parseInput(args[1])
			if err != nil {
				writeToConsole(nil, err)
			}
			root, err := generator.Update(key, smt.Some(value))
			writeToConsole(root.String(), err)
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <key>",
		Short: "immediately remove a key and print the new root",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			key, err := parseInput(args[0])
			if err != nil {
				writeToConsole(nil, err)
			}
			root, err := generator.Update(key, smt.None)
			writeToConsole(root.String(), err)
		},
	}

	leavesCmd = &cobra.Command{
		Use:   "leaves",
		Short: "list every assigned key digest with its value, then the count",
		Run: func(cmd *cobra.Command, args []string) {
			count := 0
			err := generator.Leaves(func(key smt.H256, value smt.BytesOpt) lib.ErrorI {
				count++
				writeToConsole(key.String()+" "+value.String(), nil)
				return nil
			})
			writeToConsole(count, err)
		},
	}
)
