package indexer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"gorm.io/gorm"
)

const exportBatchSize = 500

type parquetEvent struct {
	Seq        int64  `parquet:"name=seq, type=INT64"`
	Type       string `parquet:"name=type, type=UTF8"`
	Height     int64  `parquet:"name=height, type=INT64"`
	Account    string `parquet:"name=account, type=UTF8"`
	Attributes string `parquet:"name=attributes, type=UTF8"`
	IndexedAt  string `parquet:"name=indexed_at, type=UTF8"`
}

// ExportParquet writes every event matching filter to a Snappy-compressed
// parquet file at path, in commit order. Filter.Limit is ignored. The number
// of exported rows is returned.
func (i *Indexer) ExportParquet(ctx context.Context, path string, filter Filter) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("indexer: create parquet: %w", err)
	}
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(file), new(parquetEvent), 1)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("indexer: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	rows := 0
	var records []EventRecord
	result := i.filtered(ctx, filter).Order("seq ASC").FindInBatches(&records, exportBatchSize, func(tx *gorm.DB, batch int) error {
		for _, record := range records {
			row := &parquetEvent{
				Seq:        int64(record.Seq),
				Type:       record.Type,
				Height:     int64(record.Height),
				Account:    record.Account,
				Attributes: record.Attributes,
				IndexedAt:  record.CreatedAt.UTC().Format(time.RFC3339Nano),
			}
			if err := pw.Write(row); err != nil {
				return fmt.Errorf("indexer: parquet write: %w", err)
			}
			rows++
		}
		return nil
	})
	if result.Error != nil {
		_ = pw.WriteStop()
		file.Close()
		return 0, result.Error
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return 0, fmt.Errorf("indexer: parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("indexer: close parquet file: %w", err)
	}
	i.logger.Info("events exported", "path", path, "rows", rows)
	return rows, nil
}
