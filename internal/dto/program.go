package dto

import "github.com/vinyareddy314/cms-go/internal/models"

// ProgramSummary decorates a program row with poster previews for the CMS index.
type ProgramSummary struct {
	models.Program
	Assets CatalogAssetBundle `json:"assets"`
}

// ProgramDetail aggregates everything the CMS program page needs.
type ProgramDetail struct {
	Program ProgramWithTopics `json:"program"`
	Terms   []models.Term     `json:"terms"`
	Lessons []models.Lesson   `json:"lessons"`
}

// ProgramWithTopics is a program plus its topic labels and posters.
type ProgramWithTopics struct {
	models.Program
	Topics []models.Topic     `json:"topics"`
	Assets CatalogAssetBundle `json:"assets"`
}
