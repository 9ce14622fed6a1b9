package sql

import (
	"embed"
)

// Migrations holds the schema DDL, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_batch.sql
var RegisterBatch string

//go:embed queries/lookup_batch.sql
var LookupBatch string

//go:embed queries/update_batch_status.sql
var UpdateBatchStatus string

//go:embed queries/delete_patient_years.sql
var DeletePatientYears string

//go:embed queries/delete_state_rates.sql
var DeleteStateRates string
