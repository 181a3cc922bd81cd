package database

import (
	"log"

	"sekolah-backend/internal/config"
	"sekolah-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open connects to Postgres. TranslateError lets stores match
// gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate creates or updates every table of the application.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.WasteType{},
		&models.ClassRoom{},
		&models.Teacher{},
		&models.Deposit{},
	)
	if err != nil {
		return err
	}

	// Nama jenis sampah dan guru unik tanpa membedakan huruf besar/kecil.
	for _, idx := range []struct{ old, name, table string }{
		{"idx_waste_types_name", "idx_waste_types_name_lower", "waste_types"},
		{"idx_teachers_name", "idx_teachers_name_lower", "teachers"},
	} {
		if err := db.Exec("DROP INDEX IF EXISTS " + idx.old).Error; err != nil {
			log.Printf("[WARN] drop index %s: %v", idx.old, err)
		}
		if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS " + idx.name + " ON " + idx.table + " (lower(name))").Error; err != nil {
			return err
		}
	}

	// Laporan bulanan selalu memfilter created_at lalu mengelompokkan per pemilik.
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_deposits_created_class ON deposits(created_at, class_id)").Error; err != nil {
		log.Printf("[WARN] index idx_deposits_created_class: %v", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_deposits_created_teacher ON deposits(created_at, teacher_id)").Error; err != nil {
		log.Printf("[WARN] index idx_deposits_created_teacher: %v", err)
	}
	return nil
}

func Init(cfg *config.Config) {
	var err error

	DB, err = Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("[FATAL] Tidak dapat terhubung ke database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("[FATAL] AutoMigrate gagal: %v", err)
	}

	log.Println("Koneksi database berhasil. Migrasi selesai.")
}
