package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/export"
	"github.com/SmileCareNL/dentix/cmd/dentix/fhir/terminology"
	"github.com/SmileCareNL/dentix/cmd/dentix/pod"
	"github.com/SmileCareNL/dentix/cmd/dentix/storage"
	"github.com/SmileCareNL/dentix/util"
)

func init() {
	// .env is optional outside local development.
	_ = godotenv.Load(".env")
}

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).
		With().Timestamp().Caller().Logger()

	if len(os.Args) < 3 {
		fmt.Println("usage: dentix <export|import> <patient-id>")
		os.Exit(1)
	}
	command, patientID := os.Args[1], os.Args[2]

	db, err := sqlx.Connect("postgres", os.Getenv("DENTIX_DB"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the clinic database")
	}
	defer db.Close()

	auditDB, err := gorm.Open("postgres", os.Getenv("DENTIX_AUDIT_DB"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the audit database")
	}
	defer auditDB.Close()

	auditStore, err := storage.NewAuditStore(auditDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up audit store")
	}

	procedures := terminology.NewProcedureCodeService(
		util.GetAbsolutePath("config/terminology/procedure-codes.csv"), log)
	allergyCodes := terminology.NewAllergyCodeService(
		util.GetAbsolutePath("config/terminology/allergy-codes.csv"), log)

	svc := export.NewService(export.Deps{
		Patients:         storage.NewPatientStore(db, log),
		Types:            storage.NewInterventionTypeStore(db, log),
		Catalogue:        storage.NewAllergyCatalogueStore(db, log),
		Interventions:    storage.NewInterventionStore(db, log),
		PatientAllergies: storage.NewPatientAllergyStore(db, log),
		Doctors:          storage.NewDoctorStore(db, log),
		Procedures:       procedures,
		AllergyCodes:     allergyCodes,
		Transport:        pod.NewClient(log),
		Audit:            auditStore,
	}, util.GetAbsolutePath("config/shapes/health-record.shex"), log)

	session := &pod.Session{
		WebID: os.Getenv("POD_WEBID"),
		Token: os.Getenv("POD_TOKEN"),
	}
	routes := export.ExportRoutes{
		DataGraph:   "health/record.ttl",
		ShapeSchema: "health/record-schema.shex",
		ShapeMap:    "health/record-shapemap.txt",
	}

	ctx := context.Background()
	switch command {
	case "export":
		if err := svc.ExportUserData(ctx, session, patientID, routes); err != nil {
			log.Fatal().Err(err).Str("patient", patientID).Msg("Export failed")
		}
		log.Info().Str("patient", patientID).Msg("Export finished")
	case "import":
		result, err := svc.ImportUserData(ctx, session, patientID, routes)
		if err != nil {
			log.Fatal().Err(err).Str("patient", patientID).Msg("Import failed")
		}
		log.Info().
			Int("interventions", result.Interventions).
			Int("allergies", result.Allergies).
			Int("skipped", len(result.Skipped)).
			Msg("Import finished")
		for _, skip := range result.Skipped {
			log.Info().Str("node", skip.Node).Str("reason", skip.Reason).Msg("Record skipped during import")
		}
	default:
		log.Fatal().Str("command", command).Msg("Unknown command")
	}
}
