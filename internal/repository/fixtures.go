package repository

import (
	"time"

	"chonta-api/internal/domain"
)

// Fixture data set. Served when FIXTURE_MODE is on or whenever the primary
// catalog errors. Shapes mirror the production tables; values are the demo
// data the dashboard ships with.

func fixtureActivities(now time.Time) []domain.Activity {
	mk := func(id int, name string, cat domain.Category, days int, loc string, max, cur, reward int, org string) domain.Activity {
		a := domain.Activity{
			ID:                  id,
			Name:                name,
			Category:            cat,
			Date:                now.AddDate(0, 0, days),
			Location:            loc,
			MaxParticipants:     max,
			CurrentParticipants: cur,
			TokensReward:        reward,
			Organizer:           org,
			CreatedAt:           now.AddDate(0, 0, -30),
			UpdatedAt:           now.AddDate(0, 0, -1),
		}
		a.RefreshStatus()
		return a
	}

	return []domain.Activity{
		mk(1, "Limpieza del Río Cali", domain.CategoryCleanup, 3, "Río Cali, Sector Bosque", 40, 12, 15, "Fundación Río Limpio"),
		mk(2, "Taller de Compostaje", domain.CategoryEducation, 7, "Centro Cultural Comuna 18", 25, 25, 20, "EcoEduca"),
		mk(3, "Siembra en el Cerro", domain.CategoryReforestation, 10, "Cerro de las Tres Cruces", 60, 41, 30, "Reforesta Cali"),
		mk(4, "Jornada de Reciclaje", domain.CategoryCleanup, 14, "Plaza de Caicedo", 30, 5, 10, "Recicla Ya"),
		mk(5, "Charla Huertas Urbanas", domain.CategoryEducation, -2, "Biblioteca Departamental", 50, 33, 12, "Huertas del Valle"),
	}
}

func fixtureRewards(now time.Time) []domain.Reward {
	mk := func(id int, name, desc string, cost int, cat string, available bool) domain.Reward {
		return domain.Reward{
			ID:          id,
			Name:        name,
			Description: desc,
			Cost:        cost,
			Category:    cat,
			Available:   available,
			CreatedAt:   now.AddDate(0, 0, -60),
			UpdatedAt:   now.AddDate(0, 0, -3),
		}
	}

	return []domain.Reward{
		mk(1, "Bono Transporte", "Pasaje MIO recargable", 25, "transport", true),
		mk(2, "Entrada Zoológico", "Entrada al Zoológico de Cali", 60, "culture", true),
		mk(3, "Kit de Siembra", "Semillas y herramientas básicas", 40, "eco", true),
		mk(4, "Camiseta Chonta", "Edición limitada", 100, "merch", false),
	}
}

func fixtureUsers(now time.Time) []domain.User {
	mk := func(address, name string, balance int, days int) domain.User {
		return domain.User{
			Address:   address,
			Name:      name,
			Balance:   balance,
			Tier:      domain.TierForBalance(balance),
			JoinedAt:  now.AddDate(0, 0, -days),
			CreatedAt: now.AddDate(0, 0, -days),
			UpdatedAt: now.AddDate(0, 0, -1),
		}
	}

	return []domain.User{
		mk("0x3f5ce8a1b24d90f1e2a7c6d85b9e4f0a1c2d3e4f", "Valentina R.", 520, 200),
		mk("0x8a1b24d90f1e2a7c6d85b9e4f0a1c2d3e4f3f5ce", "Mateo G.", 310, 150),
		mk("0x24d90f1e2a7c6d85b9e4f0a1c2d3e4f3f5ce8a1b", "Camila T.", 145, 90),
		mk("0x90f1e2a7c6d85b9e4f0a1c2d3e4f3f5ce8a1b24d", "Santiago P.", 80, 45),
		mk("0xe2a7c6d85b9e4f0a1c2d3e4f3f5ce8a1b24d90f1", "Isabela M.", 20, 10),
	}
}
