package database

import (
	"testing"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/models"
	mysqldriver "github.com/go-sql-driver/mysql"
)

func TestMySQLDSNRoundTrips(t *testing.T) {
	dsn := mysqlDSN(&config.Config{
		DBUser:     "portal",
		DBPassword: "p@ss/word",
		DBHost:     "db",
		DBPort:     "3306",
		DBDatabase: "designsafe",
	})
	mc, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}
	if mc.User != "portal" || mc.Passwd != "p@ss/word" {
		t.Errorf("credentials = %q/%q", mc.User, mc.Passwd)
	}
	if mc.Addr != "db:3306" || mc.DBName != "designsafe" {
		t.Errorf("addr = %q, db = %q", mc.Addr, mc.DBName)
	}
	if !mc.ParseTime {
		t.Error("parseTime not set")
	}
}

func TestDialectorByType(t *testing.T) {
	for typ, name := range map[string]string{
		"mysql":     "mysql",
		"mariadb":   "mysql",
		"postgres":  "postgres",
		"sqlite":    "sqlite",
		"sqlserver": "sqlserver",
	} {
		d, err := Dialector(&config.Config{DBType: typ, DBDatabase: "x"})
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if d.Name() != name {
			t.Errorf("%s: dialector %q, want %q", typ, d.Name(), name)
		}
	}

	if _, err := Dialector(&config.Config{DBType: "oracle"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestOpenInMemoryMigrates(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer Close(db)

	lic := models.MATLABLicense{License: models.License{User: "ds_user", LicenseText: "key", LicenseType: "forged"}}
	if err := db.Create(&lic).Error; err != nil {
		t.Fatal(err)
	}
	var got models.MATLABLicense
	if err := db.First(&got, lic.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.LicenseType != models.LicenseTypeMATLAB {
		t.Errorf("license type = %q", got.LicenseType)
	}
}
