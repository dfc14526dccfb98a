package model

type Epic struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID int64  `gorm:"not null;index;uniqueIndex:uq_epics_project_name,priority:1" json:"project_id"`
	Name      string `gorm:"not null;uniqueIndex:uq_epics_project_name,priority:2" json:"name"`
	Color     string `gorm:"not null" json:"color"`
}
