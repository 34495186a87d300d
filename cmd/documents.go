package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/store"
)

var documentsUser string

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage stored resumes and profiles",
}

var documentsAddCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "Store a text document for a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title, _ := cmd.Flags().GetString("title")
		withStore(func(ctx context.Context, st *store.Store, logger *zap.Logger) error {
			doc, err := addDocument(ctx, st, documentsUser, args[0], title)
			if err != nil {
				return err
			}
			logger.Info("document stored", zap.String("id", doc.ID), zap.String("title", doc.Title))
			fmt.Fprintln(cmd.OutOrStdout(), doc.ID)
			return nil
		})
	},
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's documents, newest first",
	Run: func(cmd *cobra.Command, _ []string) {
		withStore(func(ctx context.Context, st *store.Store, _ *zap.Logger) error {
			docs, err := st.ListDocuments(ctx, documentsUser)
			if err != nil {
				return err
			}
			return printDocuments(cmd.OutOrStdout(), docs)
		})
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a stored document",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withStore(func(ctx context.Context, st *store.Store, logger *zap.Logger) error {
			if err := st.DeleteDocument(ctx, documentsUser, args[0]); err != nil {
				return err
			}
			logger.Info("document deleted", zap.String("id", args[0]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsAddCmd, documentsListCmd, documentsDeleteCmd)

	documentsCmd.PersistentFlags().StringVarP(&documentsUser, "user", "u", "", "owner of the documents")
	documentsCmd.MarkPersistentFlagRequired("user")

	documentsAddCmd.Flags().StringP("title", "t", "", "document title (defaults to the file name)")
}

func withStore(fn func(context.Context, *store.Store, *zap.Logger) error) {
	ctx := context.Background()
	logger, config := mustSetup()

	st, err := openStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}
	defer st.Close()

	if err := fn(ctx, st, logger); err != nil {
		logger.Fatal("documents", zap.Error(err))
	}
}

func addDocument(ctx context.Context, st *store.Store, userID, path, title string) (*store.Document, error) {
	content, err := readTextFile(path)
	if err != nil {
		return nil, err
	}

	if title = strings.TrimSpace(title); title == "" {
		title = filepath.Base(path)
	}

	return st.AddDocument(ctx, store.Document{
		UserID:  userID,
		Title:   title,
		Type:    store.TypeFromPath(path),
		Content: content,
	})
}

func printDocuments(out io.Writer, docs []store.Document) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tUPLOADED\tSIZE")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", d.ID, d.Title, d.Type, d.UploadedAt.Format("2006-01-02 15:04:05"), len(d.Content))
	}
	return w.Flush()
}
