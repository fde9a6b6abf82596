package repository

import "forge-server/internal/models"

// SeedGames returns the built-in example catalog used when no durable
// collection exists or the persisted record cannot be read.
func SeedGames() []models.Game {
	return []models.Game{
		{
			ID:           "1",
			Title:        "Azu Puzzle",
			Genre:        models.GenrePuzzle,
			Description:  "Dive into a mesmerizing underwater world where players embark on an adventurous puzzle exploration to save the coral reefs...",
			Status:       models.StatusInDevelopment,
			LastModified: "Jan 12, 2026",
			Assets:       []models.GameAsset{},
			Specification: &models.Specification{
				Description: "Dive into a mesmerizing underwater world where players embark on an adventurous puzzle exploration to save the coral reefs...",
				Mechanics:   []string{"Color matching", "Environmental puzzles"},
				VisualStyle: "Vibrant underwater bioluminescence",
			},
		},
		{
			ID:           "2",
			Title:        "Neon Ghost",
			Genre:        models.GenreHorror,
			Description:  "In 'Neon Ghost', players dive into a thrilling cyberpunk world where hover bikes zoom through neon-lit streets while a restless spirit haunts the city...",
			Status:       models.StatusInDevelopment,
			LastModified: "Jan 12, 2026",
			Assets:       []models.GameAsset{},
			Specification: &models.Specification{
				Description: "In 'Neon Ghost', players dive into a thrilling cyberpunk world where hover bikes zoom through neon-lit streets while a restless spirit haunts the city...",
				Mechanics:   []string{"Psychological horror", "Stealth"},
				VisualStyle: "High-contrast neon synthwave",
			},
		},
		{
			ID:           "3",
			Title:        "Space Game",
			Genre:        models.GenreSimulation,
			Description:  "Space Game is an immersive space exploration simulation that invites players to traverse the cosmos with realistic physics...",
			Status:       models.StatusInDevelopment,
			LastModified: "Jan 12, 2026",
			Assets:       []models.GameAsset{},
			Specification: &models.Specification{
				Description: "Space Game is an immersive space exploration simulation that invites players to traverse the cosmos with realistic physics...",
				Mechanics:   []string{"Open-world space navigation", "Resource management", "Scientific research"},
				VisualStyle: "Stunning art style that balances realism and stylization.",
			},
		},
	}
}
