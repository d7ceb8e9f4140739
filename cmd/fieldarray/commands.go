package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/fieldarray"
	"github.com/hupe1980/fieldarray/catalog"
	"github.com/hupe1980/fieldarray/plane"
)

func (a *app) snapshotOptions() ([]fieldarray.SnapshotOption, error) {
	return a.cfg.SnapshotOptions(a.logger)
}

func (a *app) readSnapshot(path string) (*fieldarray.FieldArray, error) {
	opts, err := a.snapshotOptions()
	if err != nil {
		return nil, err
	}
	fa, err := fieldarray.ReadSnapshotFromPath(path, opts...)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	return fa, err
}

func (a *app) openCatalog(cmd *cobra.Command) (*catalog.Catalog, func() error, error) {
	store, closeFn, err := openStore(cmd.Context(), a.cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	opts, err := a.snapshotOptions()
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return catalog.New(store, catalog.WithSnapshotOptions(opts...), catalog.WithLogger(a.logger)), closeFn, nil
}

func newBuildCmd(a *app) *cobra.Command {
	var (
		width int
		kind  string
	)

	cmd := &cobra.Command{
		Use:   "build <input.csv|-> <output.snap>",
		Short: "Build a snapshot from index,value lines",
		Long: `Reads "index,value" records (one per line, '#' starts a comment) and
writes a snapshot. Later records overwrite earlier ones.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := plane.ParseKind(kind)
			if err != nil {
				return err
			}
			fa, err := fieldarray.New(width, fieldarray.WithPlaneKind(k), fieldarray.WithLogger(a.logger))
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			n, err := loadCSV(fa, in)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			opts, err := a.snapshotOptions()
			if err != nil {
				return err
			}
			if err := fa.WriteSnapshotToPath(args[1], opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d records, length %d\n", args[1], n, fa.Length())
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "k", 4, "field width in bits (1-31)")
	cmd.Flags().StringVar(&kind, "kind", plane.KindDense.String(), "plane kind (dense, segmented)")
	return cmd
}

// loadCSV applies every index,value record of r to fa.
func loadCSV(fa *fieldarray.FieldArray, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	n := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		line, _ := cr.FieldPos(0)

		index, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return n, fmt.Errorf("line %d: index: %w", line, err)
		}
		value, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return n, fmt.Errorf("line %d: value: %w", line, err)
		}
		if err := fa.Set(index, value); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <snapshot> <index>...",
		Short: "Print the values stored at the given indices",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, err := a.readSnapshot(args[0])
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				index, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid index %q: %w", arg, err)
				}
				v, err := fa.Get(index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", index, v)
			}
			return nil
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Summarize a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			fa, err := a.readSnapshot(args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), fa)
			fmt.Fprintf(cmd.OutOrStdout(), "file size:   %s\n", humanize.IBytes(uint64(st.Size())))
			return nil
		},
	}
}

func printSummary(w io.Writer, fa *fieldarray.FieldArray) {
	fmt.Fprintf(w, "field width: %d\n", fa.FieldWidth())
	fmt.Fprintf(w, "domain size: %s\n", humanize.Comma(int64(fa.DomainSize())))
	fmt.Fprintf(w, "plane kind:  %s\n", fa.PlaneKind())
	fmt.Fprintf(w, "length:      %s\n", humanize.Comma(int64(fa.Length())))
	fmt.Fprintf(w, "cardinality: %s\n", humanize.Comma(int64(fa.Cardinality())))
	fmt.Fprintf(w, "bits:        %s\n", humanize.Comma(int64(fa.Size())))

	hist := fa.Histogram()
	values := make([]int, 0, len(hist))
	for v := range hist {
		values = append(values, v)
	}
	slices.Sort(values)
	for _, v := range values {
		fmt.Fprintf(w, "  value %d: %s\n", v, humanize.Comma(int64(hist[v])))
	}
}

func newMatchCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "match <snapshot> <value>",
		Short: "List the indices holding a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, err := a.readSnapshot(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			bm, err := fa.Match(value)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d matches\n", bm.GetCardinality())
			it := bm.Iterator()
			for i := 0; it.HasNext() && (limit <= 0 || i < limit); i++ {
				fmt.Fprintln(out, it.Next())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of indices to print (0 prints all)")
	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <snapshot> <name>",
		Short: "Publish a snapshot as the next version of name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, err := a.readSnapshot(args[0])
			if err != nil {
				return err
			}
			cat, closeFn, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			v, err := cat.Publish(cmd.Context(), args[1], fa)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s version %s\n", args[1], v)
			return nil
		},
	}
}

func newLatestCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "latest <name>",
		Short: "Load the current version of name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeFn, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			fa, v, err := cat.Latest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", args[0], v)
			printSummary(cmd.OutOrStdout(), fa)

			if out != "" {
				opts, err := a.snapshotOptions()
				if err != nil {
					return err
				}
				return fa.WriteSnapshotToPath(out, opts...)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the snapshot to this path")
	return cmd
}

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <name>",
		Short: "List the published versions of name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeFn, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			versions, err := cat.Versions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			current, err := cat.Current(cmd.Context(), args[0])
			if err != nil && !errors.Is(err, catalog.ErrNoVersion) {
				return err
			}
			for _, v := range versions {
				marker := ""
				if v == current {
					marker = "\t(current)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", v, marker)
			}
			return nil
		},
	}
}

func newPruneCmd(a *app) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune <name>",
		Short: "Delete old versions of name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeFn, err := a.openCatalog(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := cat.Prune(cmd.Context(), args[0], keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d versions\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 3, "number of newest versions to keep")
	return cmd
}
