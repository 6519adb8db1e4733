package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/postgres"
	"github.com/hajjtrust/agency-assistant/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS agencies (
	id UUID PRIMARY KEY,
	hajj_company_en TEXT NOT NULL,
	hajj_company_ar TEXT NOT NULL DEFAULT '',
	formatted_address TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	city_ar TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	country_ar TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	contact_info TEXT NOT NULL DEFAULT '',
	rating_reviews TEXT NOT NULL DEFAULT '',
	is_authorized TEXT NOT NULL DEFAULT '',
	google_maps_link TEXT NOT NULL DEFAULT '',
	link_valid BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_agencies_city ON agencies (city);
CREATE INDEX IF NOT EXISTS idx_agencies_country ON agencies (country);
CREATE INDEX IF NOT EXISTS idx_agencies_is_authorized ON agencies (is_authorized);

CREATE TABLE IF NOT EXISTS complaint_reports (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	agency_name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL,
	contact_info TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT 'en',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
	var csvPath string
	flag.StringVar(&csvPath, "csv", "data/agencies.csv", "Path to the agency catalog CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to create schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := db.ExecContext(ctx, "TRUNCATE TABLE agencies, complaint_reports"); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	file, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("Failed to open catalog CSV")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read CSV header")
	}
	columns := indexColumns(header)

	dialect := goqu.Dialect("postgres")
	seeded, skipped := 0, 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read CSV record")
		}

		agency := recordToAgency(record, columns)
		if agency.CompanyEN == "" {
			skipped++
			continue
		}

		query, args, err := dialect.Insert(entities.AgencyTable).Rows(agencyRow(agency)).Prepared(true).ToSQL()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build insert")
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			log.Error().Err(err).Str("company", agency.CompanyEN).Msg("Failed to insert agency")
			skipped++
			continue
		}
		seeded++
	}

	log.Info().Int("seeded", seeded).Int("skipped", skipped).Msg("Catalog seeding complete")
}

// indexColumns maps normalized header names to record positions so column
// order in the CSV does not matter.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		normalized = strings.ReplaceAll(normalized, " ", "_")
		columns[normalized] = i
	}
	return columns
}

func recordToAgency(record []string, columns map[string]int) entities.Agency {
	field := func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	return entities.Agency{
		ID:               uuid.NewString(),
		CompanyEN:        field("hajj_company_en"),
		CompanyAR:        field("hajj_company_ar"),
		FormattedAddress: field("formatted_address"),
		City:             field("city"),
		CityAR:           field("city_ar"),
		Country:          field("country"),
		CountryAR:        field("country_ar"),
		Email:            field("email"),
		ContactInfo:      field("contact_info"),
		RatingReviews:    field("rating_reviews"),
		IsAuthorized:     normalizeAuthorized(field("is_authorized")),
		GoogleMapsLink:   field("google_maps_link"),
		LinkValid:        strings.EqualFold(field("link_valid"), "true"),
	}
}

// normalizeAuthorized folds CSV variants onto the stored Yes/No values.
func normalizeAuthorized(value string) string {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "authorized":
		return entities.AuthorizedYes
	case "no", "n", "false", "unauthorized":
		return entities.AuthorizedNo
	}
	return value
}

func agencyRow(agency entities.Agency) goqu.Record {
	return goqu.Record{
		"id":                agency.ID,
		"hajj_company_en":   agency.CompanyEN,
		"hajj_company_ar":   agency.CompanyAR,
		"formatted_address": agency.FormattedAddress,
		"city":              agency.City,
		"city_ar":           agency.CityAR,
		"country":           agency.Country,
		"country_ar":        agency.CountryAR,
		"email":             agency.Email,
		"contact_info":      agency.ContactInfo,
		"rating_reviews":    agency.RatingReviews,
		"is_authorized":     agency.IsAuthorized,
		"google_maps_link":  agency.GoogleMapsLink,
		"link_valid":        agency.LinkValid,
	}
}
