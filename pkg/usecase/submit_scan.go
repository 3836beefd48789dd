package usecase

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/bqs"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/interfaces"
	"github.com/m-mizutani/jfind/pkg/domain/model"
	"github.com/m-mizutani/jfind/pkg/repository"
	"github.com/m-mizutani/jfind/pkg/utils/errutil"
	"github.com/m-mizutani/jfind/pkg/utils/logging"
)

// SubmitScan validates and persists one agent report. The new snapshot
// becomes the host's current one. When a BigQuery client is configured, the
// snapshot is also exported for fleet analytics; an export failure does not
// undo the committed submission.
func (x *UseCase) SubmitScan(ctx context.Context, report *model.Report) (*model.ScanSnapshot, error) {
	if err := report.Validate(); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidInput, "invalid scan report", goerr.V("error", err))
	}

	snapshot, err := x.clients.ScanRepository().Submit(ctx, report)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store scan report", goerr.V("host", report.Meta.ComputerName))
	}

	logging.From(ctx).Info("stored scan report",
		"scan_id", snapshot.ID,
		"computer_name", snapshot.ComputerName,
		"runtimes", len(snapshot.Runtimes),
	)

	if bq := x.clients.BigQuery(); bq != nil {
		if err := x.exportToBigQuery(ctx, bq, snapshot); err != nil {
			errutil.HandleError(ctx, "failed to export scan to BigQuery", err)
		}
	}

	return snapshot, nil
}

func (x *UseCase) exportToBigQuery(ctx context.Context, bq interfaces.BigQuery, snapshot *model.ScanSnapshot) error {
	record := model.NewScanRawRecord(snapshot)

	schema, err := createOrUpdateBigQueryTable(ctx, bq, record)
	if err != nil {
		return err
	}

	if err := bq.Insert(ctx, schema, record); err != nil {
		return goerr.Wrap(err, "failed to insert scan record to BigQuery")
	}

	return nil
}

func createOrUpdateBigQueryTable(ctx context.Context, bq interfaces.BigQuery, record *model.ScanRawRecord) (bigquery.Schema, error) {
	schema, err := bqs.Infer(record)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer scan record schema")
	}

	metaData, err := bq.GetMetadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get BigQuery table metadata")
	}
	if metaData == nil {
		if err := bq.CreateTable(ctx, &bigquery.TableMetadata{
			Schema: schema,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to create BigQuery table")
		}

		return schema, nil
	}

	if bqs.Equal(metaData.Schema, schema) {
		return schema, nil
	}

	mergedSchema, err := bqs.Merge(metaData.Schema, schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to merge BigQuery schema")
	}
	if err := bq.UpdateTable(ctx, bigquery.TableMetadataToUpdate{
		Schema: mergedSchema,
	}, metaData.ETag); err != nil {
		return nil, goerr.Wrap(err, "failed to update BigQuery table")
	}

	return mergedSchema, nil
}
