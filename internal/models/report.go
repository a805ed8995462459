package models

// Report wire contract. The JSON keys below are consumed verbatim by the
// grade grid frontend and must not change.

// GradeColumn is one column of the grade grid.
type GradeColumn struct {
	ID    int64  `json:"id_tipo_nota"`
	Label string `json:"label"`
}

// ReportRow is one row of the grade grid. Scores maps a grade type ID to
// the recorded value, nil when the cell is empty. Average is the mean of
// the non-nil cells; Final is the value of the designated final column
// when present, otherwise it repeats Average.
type ReportRow struct {
	ID       int64              `json:"id"`
	FullName string             `json:"nombre_completo"`
	Scores   map[int64]*float64 `json:"calificaciones"`
	Average  *float64           `json:"promedio"`
	Final    *float64           `json:"definitiva"`
}

// GradeReport is the aggregated grade grid for one student or one
// course+subject pair. DroppedRows counts pivot rows discarded because the
// row subject could not be resolved to a display name.
type GradeReport struct {
	Columns     []GradeColumn `json:"columnas"`
	Rows        []ReportRow   `json:"filas"`
	DroppedRows int           `json:"dropped_rows"`
}

// GradeCell is one pivot input: RowID carries the pivot axis value (a
// subject ID for report cards, a student ID for course grids) together
// with the score recorded for one grade type.
type GradeCell struct {
	RowID       int64   `db:"row_id"`
	GradeTypeID int64   `db:"grade_type_id"`
	Score       float64 `db:"score"`
}
