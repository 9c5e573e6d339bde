package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sehati-health/sehati/internal/client/services"
)

const recordUsage = "record add | record view <code> [id...]"

func (a *App) Record(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(recordUsage)
	}
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	switch args[0] {
	case "add":
		return a.addRecord(ctx)
	case "view":
		if len(args) < 2 {
			return usageError("record view <code> [id...]")
		}
		return a.viewRecords(ctx, args[1], args[2:])
	default:
		return usageError(recordUsage)
	}
}

func (a *App) addRecord(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Grant code or token", a.out)
	if err != nil {
		return err
	}
	p, err := services.TokenFrom(code)
	if err != nil {
		return err
	}

	r := services.NewRecord{Token: p.Token}
	if r.RecordType, err = getChoice(a.reader, "Record type", a.out, "lab_result", "diagnosis", "prescription"); err != nil {
		return err
	}
	if r.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if r.Hospital, err = getSimpleText(a.reader, "Hospital (optional)", a.out); err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	r.Content = []byte(content)

	path, err := getSimpleText(a.reader, "Attachment file (optional)", a.out)
	if err != nil {
		return err
	}
	if path != "" {
		if r.Attachment, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
	}
	if r.TxHash, err = getSimpleText(a.reader, "Ledger tx hash (optional)", a.out); err != nil {
		return err
	}

	rec, err := a.records.Add(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Record %s saved (content hash %s)\n", rec.ID, rec.ContentHash)
	return nil
}

func (a *App) viewRecords(ctx context.Context, code string, ids []string) error {
	p, err := services.TokenFrom(code)
	if err != nil {
		return err
	}

	recs, err := a.records.View(ctx, p.Token, ids, a.attachmentDir())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No records")
		return nil
	}

	for _, v := range recs {
		r := v.Record
		fmt.Fprintf(a.out, "== %s [%s] %s\n", r.Title, r.RecordType, r.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(a.out, "id=%s doctor=%s hospital=%s hash=%s\n", r.ID, r.DoctorID, r.Hospital, r.ContentHash)
		if r.TxHash != "" {
			fmt.Fprintf(a.out, "tx=%s\n", r.TxHash)
		}
		fmt.Fprintln(a.out, string(v.Content))
		if v.AttachmentPath != "" {
			fmt.Fprintf(a.out, "attachment saved to %s\n", v.AttachmentPath)
		}
	}
	return nil
}

func (a *App) Audit(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	entries, err := a.records.Audit(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No audit entries")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tWHEN\tACTION\tACTOR\tTARGET\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Seq, e.CreatedAt.Local().Format(time.DateTime),
			e.Action, e.ActorID, e.TargetID, e.Metadata)
	}
	return tw.Flush()
}
