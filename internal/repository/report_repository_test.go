package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryCellsByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"row_id", "grade_type_id", "score"}).
		AddRow(10, 1, 8.0).
		AddRow(10, 2, 6.5)
	mock.ExpectQuery("SELECT g.subject_id AS row_id.+WHERE g.student_id = \\$1.+ORDER BY g.updated_at").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	cells, err := repo.CellsByStudent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	require.Equal(t, int64(10), cells[0].RowID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySubjectNamesByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(10, "Matematica").
		AddRow(11, "Historia")
	mock.ExpectQuery("SELECT su.id, su.name.+WHERE e.student_id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	names, err := repo.SubjectNamesByStudent(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, map[int64]string{10: "Matematica", 11: "Historia"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCellsByCourseSubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"row_id", "grade_type_id", "score"}).
		AddRow(20, 1, 7.0)
	mock.ExpectQuery("SELECT g.student_id AS row_id.+WHERE g.subject_id = \\$1 AND su.course_id = \\$2").
		WithArgs(int64(5), int64(2)).
		WillReturnRows(rows)

	cells, err := repo.CellsByCourseSubject(context.Background(), 2, 5)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Equal(t, int64(20), cells[0].RowID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySubjectBelongsToCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM subjects WHERE id = \\$1 AND course_id = \\$2").
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM subjects WHERE id = \\$1 AND course_id = \\$2").
		WithArgs(int64(5), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	belongs, err := repo.SubjectBelongsToCourse(context.Background(), 5, 2)
	require.NoError(t, err)
	require.True(t, belongs)

	belongs, err = repo.SubjectBelongsToCourse(context.Background(), 5, 3)
	require.NoError(t, err)
	require.False(t, belongs)
	require.NoError(t, mock.ExpectationsWereMet())
}
