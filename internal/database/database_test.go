package database

import (
	"context"
	"testing"
	"time"

	"github.com/example/precedents/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture is a small catalogue covering every track combination
type fixture struct {
	db         *sqlx.DB
	civil      *models.Subject // all tracks
	federalTax *models.Subject // federal judges only
	userID     int64

	bothJudges  *models.Precedent // civil, state + federal judges
	prosecutor  *models.Precedent // civil, prosecutors only
	inactive    *models.Precedent // civil, all tracks but inactive
	taxFederal  *models.Precedent // federal tax, federal judges
	taxAllFlags *models.Precedent // federal tax, all flags; subject gates it
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	f := &fixture{db: db}

	subjects := NewSubjectRepository(db)
	f.civil = &models.Subject{Name: "Civil Law", Position: 1,
		Applicability: models.Applicability{JudgeState: true, JudgeFederal: true, Prosecutor: true}}
	f.federalTax = &models.Subject{Name: "Federal Tax Law", Position: 2,
		Applicability: models.Applicability{JudgeFederal: true}}
	require.NoError(t, subjects.Create(ctx, f.civil))
	require.NoError(t, subjects.Create(ctx, f.federalTax))

	precedents := NewPrecedentRepository(db)
	judged := time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC)
	mk := func(subject *models.Subject, number, title string, active bool, a models.Applicability, tags ...string) *models.Precedent {
		p := &models.Precedent{
			SubjectID:     subject.ID,
			Court:         "STJ",
			Kind:          "súmula",
			Number:        number,
			Title:         title,
			Thesis:        "Thesis of " + title,
			JudgedAt:      &judged,
			Tags:          models.NormalizeTags(tags),
			Active:        active,
			Applicability: a,
		}
		require.NoError(t, precedents.Create(ctx, p))
		return p
	}
	f.bothJudges = mk(f.civil, "Súmula 1", "Civil liability", true,
		models.Applicability{JudgeState: true, JudgeFederal: true}, "liability")
	f.prosecutor = mk(f.civil, "Súmula 2", "Public civil action", true,
		models.Applicability{Prosecutor: true}, "collective")
	f.inactive = mk(f.civil, "Súmula 3", "Overruled", false,
		models.Applicability{JudgeState: true, JudgeFederal: true, Prosecutor: true})
	f.taxFederal = mk(f.federalTax, "Tema 69", "ICMS in PIS base", true,
		models.Applicability{JudgeFederal: true}, "tax", "repercussão geral")
	f.taxAllFlags = mk(f.federalTax, "Tema 70", "Tax prescription", true,
		models.Applicability{JudgeState: true, JudgeFederal: true, Prosecutor: true}, "tax")

	user := &models.User{Email: "student@example.com", PasswordHash: "x", Track: models.TrackJudgeState}
	require.NoError(t, NewUserRepository(db).Create(ctx, user))
	f.userID = user.ID
	return f
}
