package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	app "photoapp/src/app"
	"photoapp/src/metrics"

	"go.uber.org/zap"
)

type (
	// ObjectStore is the bucket the photos live in.
	ObjectStore interface {
		BucketName() string
		CountObjects(ctx context.Context) (int, error)
		UploadFile(ctx context.Context, localPath, key string) error
		DownloadFile(ctx context.Context, key, dir string) (string, error)
	}

	// MetadataStore holds users and assets. Lookups report a missing row
	// with found == false, never with an error.
	MetadataStore interface {
		Endpoint() string
		CountUsers(ctx context.Context) (int64, error)
		CountAssets(ctx context.Context) (int64, error)
		ListUsers(ctx context.Context) ([]app.User, error)
		ListAssets(ctx context.Context) ([]app.Asset, error)
		FindAsset(ctx context.Context, assetID int64) (app.AssetLocation, bool, error)
		FindUserFolder(ctx context.Context, userID int64) (string, bool, error)
		AddAsset(ctx context.Context, userID int64, name, bucketKey string) (int64, error)
		AddUser(ctx context.Context, email, lastName, firstName, bucketFolder string) (int64, error)
	}

	// Viewer renders a downloaded image.
	Viewer interface {
		Show(path string) error
	}

	// Session is everything the commands share: one bucket handle and one
	// metadata connection for the whole process.
	Session struct {
		Objects ObjectStore
		Meta    MetadataStore
		Viewer  Viewer
		// WorkDir receives downloads and anchors relative upload paths.
		WorkDir string
		Log     *zap.SugaredLogger
	}

	Dispatcher struct {
		session  *Session
		in       *bufio.Scanner
		out      io.Writer
		handlers map[Command]func(ctx context.Context) string
	}
)

// NewDispatcher reads commands from in and writes results to out.
func NewDispatcher(session *Session, in io.Reader, out io.Writer) *Dispatcher {
	if session.WorkDir == "" {
		session.WorkDir = "."
	}
	if session.Log == nil {
		session.Log = zap.NewNop().Sugar()
	}
	d := &Dispatcher{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
	}
	d.handlers = map[Command]func(ctx context.Context) string{
		CmdStats:           d.stats,
		CmdUsers:           d.users,
		CmdAssets:          d.assets,
		CmdDownload:        func(ctx context.Context) string { return d.download(ctx, false) },
		CmdDownloadDisplay: func(ctx context.Context) string { return d.download(ctx, true) },
		CmdUpload:          d.upload,
		CmdAddUser:         d.addUser,
	}
	return d
}

// Run loops until the end command, the end of input or ctx is done. A done
// ctx is only noticed between commands.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		d.printMenu()
		line, ok := d.readLine()
		if !ok {
			return d.in.Err()
		}

		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(d.out, "**ERROR: invalid input")
			metrics.RecordCommand("invalid", metrics.StatusError)
			continue
		}

		cmd := Command(n)
		if cmd == CmdEnd {
			return nil
		}
		status := d.Dispatch(ctx, cmd)
		metrics.RecordCommand(cmd.String(), status)
	}
}

// Dispatch runs one command and returns its metrics status. A started
// command runs to completion even if ctx is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) string {
	handler, ok := d.handlers[cmd]
	if !ok {
		fmt.Fprintln(d.out, "** Unknown command, try again...")
		return metrics.StatusError
	}
	return handler(context.WithoutCancel(ctx))
}

func (d *Dispatcher) printMenu() {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, ">> Enter a command:")
	for cmd := CmdEnd; cmd <= CmdAddUser; cmd++ {
		fmt.Fprintf(d.out, "   %d => %s\n", cmd, cmd.Label())
	}
}

func (d *Dispatcher) readLine() (string, bool) {
	if !d.in.Scan() {
		return "", false
	}
	return d.in.Text(), true
}

// ask prints the prompt and reads one answer.
func (d *Dispatcher) ask(prompt string) (string, bool) {
	fmt.Fprintln(d.out, prompt)
	line, ok := d.readLine()
	return strings.TrimSpace(line), ok
}

func (d *Dispatcher) askID(prompt, what string) (int64, bool) {
	line, ok := d.ask(prompt)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		fmt.Fprintf(d.out, "**ERROR: %s id must be a number\n", what)
		return 0, false
	}
	return id, true
}

// fail reports a store error: a generic line for the user, the detail for
// the log.
func (d *Dispatcher) fail(msg string, err error, keysAndValues ...interface{}) string {
	fmt.Fprintf(d.out, "**ERROR: %s\n", msg)
	d.session.Log.Errorw(msg, append(keysAndValues, "error", err)...)
	return metrics.StatusError
}

func (d *Dispatcher) stats(ctx context.Context) string {
	status := metrics.StatusOK

	fmt.Fprintln(d.out, "S3 bucket name:", d.session.Objects.BucketName())
	if n, err := d.session.Objects.CountObjects(ctx); err != nil {
		status = d.fail("unable to list S3 bucket", err)
	} else {
		fmt.Fprintln(d.out, "S3 assets:", n)
	}

	fmt.Fprintln(d.out, "RDS MySQL endpoint:", d.session.Meta.Endpoint())
	if n, err := d.session.Meta.CountUsers(ctx); err != nil {
		fmt.Fprintln(d.out, "Database operation failed (users)...")
		d.session.Log.Errorw("count users failed", "error", err)
		status = metrics.StatusError
	} else {
		fmt.Fprintf(d.out, "# of users: %d\n", n)
	}
	if n, err := d.session.Meta.CountAssets(ctx); err != nil {
		fmt.Fprintln(d.out, "Database operation failed (assets)...")
		d.session.Log.Errorw("count assets failed", "error", err)
		status = metrics.StatusError
	} else {
		fmt.Fprintf(d.out, "# of assets: %d\n", n)
	}
	return status
}

func (d *Dispatcher) users(ctx context.Context) string {
	users, err := d.session.Meta.ListUsers(ctx)
	if err != nil {
		return d.fail("unable to retrieve users from the database", err)
	}
	for _, u := range users {
		fmt.Fprintf(d.out, "User id: %d\n", u.ID)
		fmt.Fprintf(d.out, "  Email: %s\n", u.Email)
		fmt.Fprintf(d.out, "  Name: %s\n", u.FullName())
		fmt.Fprintf(d.out, "  Folder: %s\n", u.BucketFolder)
	}
	return metrics.StatusOK
}

func (d *Dispatcher) assets(ctx context.Context) string {
	assets, err := d.session.Meta.ListAssets(ctx)
	if err != nil {
		return d.fail("unable to retrieve assets from the database", err)
	}
	for _, a := range assets {
		fmt.Fprintf(d.out, "Asset id: %d\n", a.ID)
		fmt.Fprintf(d.out, "  User id: %d\n", a.UserID)
		fmt.Fprintf(d.out, "  Original name: %s\n", a.Name)
		fmt.Fprintf(d.out, "  Key name: %s\n", a.BucketKey)
	}
	return metrics.StatusOK
}

func (d *Dispatcher) download(ctx context.Context, display bool) string {
	assetID, ok := d.askID("Enter asset id>", "asset")
	if !ok {
		return metrics.StatusError
	}

	loc, found, err := d.session.Meta.FindAsset(ctx, assetID)
	if err != nil {
		return d.fail("unable to look up asset", err, "assetid", assetID)
	}
	if !found {
		fmt.Fprintln(d.out, "No such asset...")
		return metrics.StatusNotFound
	}

	tmp, err := d.session.Objects.DownloadFile(ctx, loc.BucketKey, d.session.WorkDir)
	if err != nil {
		return d.fail("unable to download asset", err, "assetid", assetID, "key", loc.BucketKey)
	}

	name := localName(loc)
	target := filepath.Join(d.session.WorkDir, name)
	if err := os.Rename(tmp, target); err != nil {
		return d.fail("unable to save downloaded asset", err, "from", tmp, "to", target)
	}
	fmt.Fprintf(d.out, "Downloaded from S3 and saved as ' %s '\n", name)

	if display {
		if d.session.Viewer == nil {
			fmt.Fprintln(d.out, "**ERROR: no image viewer configured")
			return metrics.StatusError
		}
		if err := d.session.Viewer.Show(target); err != nil {
			fmt.Fprintf(d.out, "**ERROR: unable to display image: %v\n", err)
			d.session.Log.Errorw("display failed", "file", target, "error", err)
			return metrics.StatusError
		}
	}
	return metrics.StatusOK
}

// localName is the file a downloaded asset is saved as: the base of the
// name it was uploaded under.
func localName(loc app.AssetLocation) string {
	name := filepath.Base(loc.Name)
	if name == "." || name == string(filepath.Separator) {
		name = filepath.Base(loc.BucketKey)
	}
	return name
}

func (d *Dispatcher) upload(ctx context.Context) string {
	localPath, ok := d.ask("Enter local filename>")
	if !ok {
		return metrics.StatusError
	}
	resolved := localPath
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(d.session.WorkDir, resolved)
	}
	if info, err := os.Stat(resolved); err != nil || info.IsDir() {
		fmt.Fprintf(d.out, "Local file %s does not exist...\n", localPath)
		return metrics.StatusError
	}

	userID, ok := d.askID("Enter user id>", "user")
	if !ok {
		return metrics.StatusError
	}

	folder, found, err := d.session.Meta.FindUserFolder(ctx, userID)
	if err != nil {
		return d.fail("unable to look up user", err, "userid", userID)
	}
	if !found {
		fmt.Fprintln(d.out, "No such user...")
		return metrics.StatusNotFound
	}

	key := app.NewBucketKey(folder)
	if err := d.session.Objects.UploadFile(ctx, resolved, key); err != nil {
		return d.fail("unable to upload asset to S3", err, "file", resolved, "key", key)
	}

	assetID, err := d.session.Meta.AddAsset(ctx, userID, localPath, key)
	if err != nil {
		// The object stays in the bucket without a row pointing at it.
		return d.fail("unable to record asset in the database", err, "orphaned_key", key)
	}

	fmt.Fprintf(d.out, "Uploaded and stored in S3 as ' %s '\n", key)
	fmt.Fprintf(d.out, "Recorded in RDS under asset id %d\n", assetID)
	return metrics.StatusOK
}

func (d *Dispatcher) addUser(ctx context.Context) string {
	email, ok := d.ask("Enter user's email>")
	if !ok {
		return metrics.StatusError
	}
	lastName, ok := d.ask("Enter user's last (family) name>")
	if !ok {
		return metrics.StatusError
	}
	firstName, ok := d.ask("Enter user's first (given) name>")
	if !ok {
		return metrics.StatusError
	}

	userID, err := d.session.Meta.AddUser(ctx, email, lastName, firstName, app.NewBucketFolder())
	if err != nil {
		return d.fail("unable to add user", err, "email", email)
	}
	fmt.Fprintf(d.out, "Recorded in RDS under user id %d\n", userID)
	return metrics.StatusOK
}
