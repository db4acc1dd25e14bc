package cmd

import (
	"context"
	"encoding/json"
	"mime"
	"os"
	"path/filepath"

	"artifact-store/core/bucket"
	"artifact-store/feature/files"

	"github.com/spf13/cobra"
)

var fileFlags struct {
	owner       string
	category    string
	filename    string
	contentType string
	datePrefix  string
	getMinutes  int
	putMinutes  int
	maxResults  int
	out         string
}

// filesCmd groups the object operations.
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Operate on stored artifacts",
	Long:  `Upload, inspect, share, list and delete artifacts. Results are printed as JSON.`,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a local file under a new key",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		name := fileFlags.filename
		if name == "" {
			name = filepath.Base(args[0])
		}
		contentType := fileFlags.contentType
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(name))
		}
		return d.files.Upload(ctx, sess, fileFlags.owner, fileFlags.category, args[0], name, contentType)
	}),
}

var infoCmd = &cobra.Command{
	Use:   "info [key]",
	Short: "Show the metadata of an object",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		return d.files.GetMetadata(ctx, sess, args[0])
	}),
}

var downloadCmd = &cobra.Command{
	Use:   "download [key]",
	Short: "Write the content of an object to a file",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		meta, data, err := d.files.Download(ctx, sess, args[0])
		if err != nil {
			return nil, err
		}
		out := fileFlags.out
		if out == "" {
			out = filepath.Base(args[0])
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return nil, err
		}
		return map[string]any{"metadata": meta, "written_to": out}, nil
	}),
}

var publicCmd = &cobra.Command{
	Use:   "public [key]",
	Short: "Make a single object publicly readable",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		return d.files.MakePublic(ctx, sess, args[0])
	}),
}

var signGetCmd = &cobra.Command{
	Use:   "sign-get [key]",
	Short: "Mint a time-limited download URL",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		return d.files.SignGet(ctx, sess, args[0], fileFlags.getMinutes)
	}),
}

var signPutCmd = &cobra.Command{
	Use:   "sign-put",
	Short: "Mint a time-limited upload URL for a new key",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		return d.files.SignPut(ctx, sess, fileFlags.owner, fileFlags.category, fileFlags.filename, fileFlags.contentType, fileFlags.putMinutes)
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		return d.files.Delete(ctx, sess, args[0])
	}),
}

var existsCmd = &cobra.Command{
	Use:   "exists [key]",
	Short: "Check whether an object exists",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		return d.files.Exists(ctx, sess, args[0])
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's objects",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error) {
		items, err := d.files.List(ctx, sess, fileFlags.owner, fileFlags.category, fileFlags.datePrefix, fileFlags.maxResults)
		if err != nil {
			return nil, err
		}
		return map[string]any{"files": items, "count": len(items)}, nil
	}),
}

type sessionRun func(ctx context.Context, d *deps, sess bucket.Session, args []string) (any, error)

// withSession wires dependencies, starts the engine lazily and prints the
// result as indented JSON.
func withSession(run sessionRun) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		defer d.logger.Sync()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		sess, err := d.session(ctx)
		if err != nil {
			return err
		}

		result, err := run(ctx, d, sess, args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

func init() {
	for _, c := range []*cobra.Command{uploadCmd, signPutCmd, listCmd} {
		c.Flags().StringVar(&fileFlags.owner, "owner", "", "owner id")
		_ = c.MarkFlagRequired("owner")
		c.Flags().StringVar(&fileFlags.category, "category", "", "category (e.g. recipes, images)")
	}
	_ = uploadCmd.MarkFlagRequired("category")
	_ = signPutCmd.MarkFlagRequired("category")

	uploadCmd.Flags().StringVar(&fileFlags.filename, "filename", "", "original filename (default: base name of path)")
	uploadCmd.Flags().StringVar(&fileFlags.contentType, "content-type", "", "content type (default: from extension)")

	signPutCmd.Flags().StringVar(&fileFlags.filename, "filename", "", "original filename")
	signPutCmd.Flags().StringVar(&fileFlags.contentType, "content-type", "", "content type the uploader will send")
	signPutCmd.Flags().IntVar(&fileFlags.putMinutes, "minutes", 15, "URL lifetime in minutes")
	_ = signPutCmd.MarkFlagRequired("filename")
	_ = signPutCmd.MarkFlagRequired("content-type")

	signGetCmd.Flags().IntVar(&fileFlags.getMinutes, "minutes", 60, "URL lifetime in minutes")

	downloadCmd.Flags().StringVarP(&fileFlags.out, "out", "o", "", "output file (default: base name of key)")

	listCmd.Flags().StringVar(&fileFlags.datePrefix, "date", "", "DD-MM-YYYY date or prefix of it (needs --category)")
	listCmd.Flags().IntVar(&fileFlags.maxResults, "max", files.DefaultMaxResults, "maximum number of results")

	filesCmd.AddCommand(uploadCmd, infoCmd, downloadCmd, publicCmd, signGetCmd, signPutCmd, deleteCmd, existsCmd, listCmd)
	RootCmd.AddCommand(filesCmd)
}
