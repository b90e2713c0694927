package converter

import (
	"bufio"
	"log/slog"
	"path/filepath"

	"github.com/nconklindev/tabjson/internal/document"
	"github.com/nconklindev/tabjson/internal/types"

	"github.com/google/renameio/v2"
)

// Options tunes a conversion. The zero value is ready to use.
type Options struct {
	// OverflowKey names the list holding cells past the end of the header.
	// Defaults to document.DefaultOverflowKey.
	OverflowKey string
}

func (o Options) overflowKey() string {
	if o.OverflowKey == "" {
		return document.DefaultOverflowKey
	}
	return o.OverflowKey
}

// Convert reads a tabular file and writes its data rows to outputFile as a
// JSON array of header-keyed objects. The source is fully parsed before the
// destination is touched, and the destination is replaced only once the new
// document has been written completely.
func Convert(inputFile, outputFile string, opts Options) (*types.ConversionResult, error) {
	data, err := ReadFileData(inputFile)
	if err != nil {
		return nil, err
	}

	records := BuildRecords(data, opts)
	slog.Debug("converter: parsed source", "source", inputFile, "columns", len(data.Headers), "rows", len(records))

	if err := writeDocument(outputFile, records); err != nil {
		return nil, err
	}

	return &types.ConversionResult{
		InputFile:     inputFile,
		OutputFile:    outputFile,
		ColumnsFound:  data.Headers,
		RowsProcessed: len(records),
	}, nil
}

// BuildRecords turns every data row into a record keyed by the header, in
// source order.
func BuildRecords(data *types.FileData, opts Options) []*document.Record {
	key := opts.overflowKey()
	records := make([]*document.Record, 0, len(data.Rows))
	for _, row := range data.Rows {
		records = append(records, document.FromRow(data.Headers, row, key))
	}
	return records
}

// writeDocument encodes records into a pending file beside outputFile and
// atomically replaces outputFile with it. An existing destination keeps its
// permissions.
func writeDocument(outputFile string, records []*document.Record) error {
	pending, err := renameio.NewPendingFile(outputFile,
		renameio.WithTempDir(filepath.Dir(outputFile)),
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return destinationError(outputFile, err)
	}
	defer pending.Cleanup()

	w := bufio.NewWriter(pending)
	if err := document.Encode(w, records); err != nil {
		return destinationError(outputFile, err)
	}
	if err := w.Flush(); err != nil {
		return destinationError(outputFile, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return destinationError(outputFile, err)
	}

	return nil
}
