package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/kasboard/internal/auth"
	"github.com/theirongolddev/kasboard/internal/log"
	"github.com/theirongolddev/kasboard/internal/pipeline"
)

// ExportDateLayout is how dates appear in exported files, in local time.
const ExportDateLayout = "2006-01-02 15:04:05"

var exportHeader = []string{"date", "source", "amount", "description", "member_name", "member_role"}

// ExportFilename returns the download name for an export made at t.
func ExportFilename(t time.Time, loc *time.Location) string {
	return "Transaksi_terakhir_" + t.In(loc).Format("2006-01-02") + ".csv"
}

// Export writes every transaction, newest first, to w and returns the
// suggested file name.
func (c *Controller) Export(sess *auth.Session, w io.Writer) (string, error) {
	if err := sess.Require(auth.ActionExport); err != nil {
		return "", err
	}

	rows := pipeline.AllTransactionsSorted(c.Transactions())

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Date.In(c.loc).Format(ExportDateLayout),
			string(r.Source),
			r.Amount.String(),
			r.Description,
			r.MemberName,
			r.MemberRole,
		}
		if err := cw.Write(rec); err != nil {
			return "", fmt.Errorf("writing export: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	c.logger.Info("exported",
		log.FieldOperation, log.OpExport,
		log.FieldUser, sess.Username(),
		log.FieldCount, len(rows))
	return ExportFilename(c.now(), c.loc), nil
}

// ExportFile exports into dir under the suggested name and returns the
// written path. Nothing is created when the session may not export.
func (c *Controller) ExportFile(sess *auth.Session, dir string) (string, error) {
	var buf bytes.Buffer
	name, err := c.Export(sess, &buf)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
