package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

func setupLeadsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the
	// same in-memory store while isolating tests from each other.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS buyers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  title TEXT NOT NULL,
  price TEXT NOT NULL DEFAULT '0',
  state TEXT NOT NULL,
  city TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS leads (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  property_id TEXT NOT NULL,
  contact_preference TEXT NOT NULL DEFAULT 'either',
  message TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (buyer_id, property_id)
);`,
		`CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  lead_id TEXT NOT NULL,
  agent_id TEXT NOT NULL,
  tier TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'assigned',
  assigned_at DATETIME,
  expires_at DATETIME NOT NULL,
  accepted_at DATETIME,
  outcome TEXT
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedLeadRow(t *testing.T, db *gorm.DB, createdAt time.Time) *models.Lead {
	t.Helper()
	lead := &models.Lead{
		ID:                uuid.New(),
		BuyerID:           uuid.New(),
		PropertyID:        uuid.New(),
		ContactPreference: enums.ContactPreferenceEither,
		CreatedAt:         createdAt,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func TestRepositoryFindByBuyerAndProperty(t *testing.T) {
	db := setupLeadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lead := seedLeadRow(t, db, time.Now().UTC())

	found, err := repo.FindByBuyerAndProperty(ctx, lead.BuyerID, lead.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, found.ID)

	_, err = repo.FindByBuyerAndProperty(ctx, uuid.New(), lead.PropertyID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateRefreshesLead(t *testing.T) {
	db := setupLeadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lead := seedLeadRow(t, db, time.Now().UTC())
	message := "please call in the evening"
	err := repo.Update(ctx, lead.ID, map[string]any{
		"contact_preference": enums.ContactPreferencePhone,
		"message":            &message,
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ContactPreferencePhone, reloaded.ContactPreference)
	require.NotNil(t, reloaded.Message)
	assert.Equal(t, message, *reloaded.Message)
}

func TestRepositoryListUnrouted(t *testing.T) {
	db := setupLeadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	neverRouted := seedLeadRow(t, db, base)
	allExpired := seedLeadRow(t, db, base.Add(time.Minute))
	activeLead := seedLeadRow(t, db, base.Add(2*time.Minute))
	acceptedLead := seedLeadRow(t, db, base.Add(3*time.Minute))

	insert := func(leadID uuid.UUID, status enums.AssignmentStatus) {
		require.NoError(t, db.Create(&models.Assignment{
			ID:        uuid.New(),
			LeadID:    leadID,
			AgentID:   uuid.New(),
			Tier:      enums.AgentTierExternal,
			Status:    status,
			ExpiresAt: base,
		}).Error)
	}
	insert(allExpired.ID, enums.AssignmentStatusExpired)
	insert(activeLead.ID, enums.AssignmentStatusAssigned)
	insert(acceptedLead.ID, enums.AssignmentStatusExpired)
	insert(acceptedLead.ID, enums.AssignmentStatusAccepted)

	leads, cursor, err := repo.ListUnrouted(ctx, UnroutedQuery{Limit: 10})
	require.NoError(t, err)
	assert.Nil(t, cursor)
	require.Len(t, leads, 2)
	// Newest first.
	assert.Equal(t, allExpired.ID, leads[0].ID)
	assert.Equal(t, neverRouted.ID, leads[1].ID)
}

func TestRepositoryListUnroutedPaginates(t *testing.T) {
	db := setupLeadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		seedLeadRow(t, db, base.Add(time.Duration(i)*time.Minute))
	}

	first, cursor, err := repo.ListUnrouted(ctx, UnroutedQuery{Limit: 2})
	require.NoError(t, err)
	require.NotNil(t, cursor)
	require.Len(t, first, 2)

	rest, next, err := repo.ListUnrouted(ctx, UnroutedQuery{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rest, 1)
}
