package model

import (
	_ "embed"
	"sync"

	"github.com/kaptinlin/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed report_schema.json
var reportSchemaJSON []byte

var (
	reportSchemaOnce sync.Once
	reportSchema     *jsonschema.Schema
	reportSchemaErr  error
)

func compiledReportSchema() (*jsonschema.Schema, error) {
	reportSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		reportSchema, reportSchemaErr = compiler.Compile(reportSchemaJSON)
	})
	return reportSchema, reportSchemaErr
}

// ValidateReportJSON checks the structure of a raw agent report body before
// it is decoded. Semantic checks (timestamp parse, etc.) are Report.Validate.
func ValidateReportJSON(data []byte) error {
	schema, err := compiledReportSchema()
	if err != nil {
		return goerr.Wrap(err, "failed to compile report schema")
	}

	result := schema.ValidateJSON(data)
	if !result.IsValid() {
		return goerr.New("report does not match schema", goerr.V("errors", result.Errors))
	}
	return nil
}
