package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// entryDoc is one YAML document of a post file.
type entryDoc struct {
	Memo            string   `yaml:"memo"`
	Datetime        string   `yaml:"datetime"`
	Approved        *bool    `yaml:"approved"`
	OriginalJournal string   `yaml:"original_journal"`
	Legs            []legDoc `yaml:"legs"`
}

// legDoc carries exactly one of Debit or Credit.
type legDoc struct {
	Account string      `yaml:"account"`
	Debit   any         `yaml:"debit"`
	Credit  any         `yaml:"credit"`
	Meta    domain.Meta `yaml:"meta"`
}

// decodeEntries reads every YAML document in r. Documents are separated by
// "---" and each becomes its own journal.
func decodeEntries(r io.Reader) ([]entryDoc, error) {
	dec := yaml.NewDecoder(r)
	var docs []entryDoc
	for {
		var doc entryDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode entry %d: %v", apperrors.ErrValidation, len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no entries found", apperrors.ErrValidation)
	}
	return docs, nil
}

// build turns the document into an uncommitted entry on book.
func (d entryDoc) build(book *services.Book) (*services.Entry, error) {
	opts := []services.EntryOption{services.WithOriginalJournal(d.OriginalJournal)}
	if d.Datetime != "" {
		opts = append(opts, services.WithDatetime(d.Datetime))
	}

	entry := book.Entry(d.Memo, opts...)
	if d.Approved != nil {
		entry.SetApproved(*d.Approved)
	}
	for i, leg := range d.Legs {
		switch {
		case leg.Debit != nil && leg.Credit != nil:
			return nil, fmt.Errorf("%w: leg %d on %q has both debit and credit", apperrors.ErrValidation, i+1, leg.Account)
		case leg.Debit != nil:
			entry.Debit(leg.Account, leg.Debit, leg.Meta)
		case leg.Credit != nil:
			entry.Credit(leg.Account, leg.Credit, leg.Meta)
		default:
			return nil, fmt.Errorf("%w: leg %d on %q has no amount", apperrors.ErrValidation, i+1, leg.Account)
		}
	}
	return entry, entry.Err()
}

func newPostCmd(a *app) *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "post",
		Short: "Commit journals described in a YAML file",
		Long: `Commit one journal per YAML document in the file ("-" reads stdin).

Example document:
  memo: Received payment
  datetime: 2024-03-01
  legs:
    - account: Assets:Cash
      debit: 700
    - account: Assets:Receivable
      credit: 700
      meta: {clientId: "12345"}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger := logging.WithOperation(cmd.Context(), a.rt.logger, "post")

			in := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			docs, err := decodeEntries(in)
			if err != nil {
				return err
			}
			book, err := a.rt.book(a.bookName)
			if err != nil {
				return err
			}

			journals := make([]*domain.Journal, 0, len(docs))
			for i, doc := range docs {
				entry, err := doc.build(book)
				if err != nil {
					return fmt.Errorf("entry %d: %w", i+1, err)
				}
				journal, err := entry.Commit(ctx)
				if err != nil {
					return fmt.Errorf("entry %d: %w", i+1, err)
				}
				journals = append(journals, journal)
			}

			logger.Info("Posted journals", slog.String("book", book.Name()), slog.Int("count", len(journals)))
			return writeJSON(cmd.OutOrStdout(), journals)
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "-", "YAML file with one entry per document")
	return c
}
