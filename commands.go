package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/medilabo/medilabo-cli/medilabo"
	"github.com/medilabo/medilabo-cli/whatsapp"
	log "github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"golang.org/x/time/rate"
	"gopkg.in/urfave/cli.v1"
)

var ErrMissingFields = errors.New("missing required fields")

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

func requireArg(c *cli.Context, name string) (string, error) {
	value := strings.TrimSpace(c.Args().Get(0))
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingFields, name)
	}
	return value, nil
}

func commands(env *environment) []cli.Command {
	return []cli.Command{
		{
			Name:  "login",
			Usage: "Authenticate to the MediLabo gateway",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "username, u", Usage: "user name (defaults to the configured one)"},
				cli.StringFlag{Name: "password, p", Usage: "password (prompted when missing)"},
			},
			Action: func(c *cli.Context) error {
				return loginAction(env, c)
			},
		},
		{
			Name:  "logout",
			Usage: "Forget the stored session",
			Action: func(c *cli.Context) error {
				if err := env.client.Logout(env.ctx); err != nil {
					return err
				}
				log.Info("Déconnexion réussie.")
				return nil
			},
		},
		{
			Name:   "whoami",
			Usage:  "Show the user of the stored session",
			Action: requireSession(env, whoamiAction(env)),
		},
		{
			Name:  "config",
			Usage: "Print the effective configuration",
			Action: func(c *cli.Context) error {
				fmt.Fprint(env.out, env.config.String())
				return nil
			},
		},
		{
			Name:  "patient",
			Usage: "Manage patients",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "List patients",
					Action: requireSession(env, patientListAction(env)),
				},
				{
					Name:   "add",
					Usage:  "Add a patient",
					Flags:  patientFlags(),
					Action: requireSession(env, patientAddAction(env)),
				},
				{
					Name:      "update",
					Usage:     "Update a patient; omitted fields keep their current value",
					ArgsUsage: "<patient id>",
					Flags:     patientFlags(),
					Action:    requireSession(env, patientUpdateAction(env)),
				},
				{
					Name:      "delete",
					Usage:     "Delete a patient",
					ArgsUsage: "<patient id>",
					Flags: []cli.Flag{
						cli.BoolFlag{Name: "list", Usage: "print the remaining patients"},
					},
					Action: requireSession(env, patientDeleteAction(env)),
				},
				{
					Name:      "show",
					Usage:     "Show a patient with appointments, doctors, notes, transmissions and risk alert",
					ArgsUsage: "<patient id>",
					Action:    requireSession(env, patientShowAction(env)),
				},
				{
					Name:      "export",
					Usage:     "Export patients to a CSV file",
					ArgsUsage: "[file]",
					Action:    requireSession(env, patientExportAction(env)),
				},
			},
		},
		{
			Name:  "rdv",
			Usage: "Manage appointments",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "Add an appointment to a patient",
					ArgsUsage: "<patient id>",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "medecin", Usage: "doctor name"},
						cli.StringFlag{Name: "jour", Usage: "day (YYYY-MM-DD)"},
						cli.StringFlag{Name: "heure", Usage: "time (HH:MM)"},
					},
					Action: requireSession(env, rdvAddAction(env)),
				},
			},
		},
		{
			Name:  "note",
			Usage: "Manage clinical notes",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "Add a note to a patient",
					ArgsUsage: "<patient id>",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "nom-medecin", Usage: "doctor last name"},
						cli.StringFlag{Name: "prenom-medecin", Usage: "doctor first name"},
						cli.StringFlag{Name: "note", Usage: "note content"},
					},
					Action: requireSession(env, noteAddAction(env)),
				},
				{
					Name:      "list",
					Usage:     "List the notes of a patient",
					ArgsUsage: "<patient id>",
					Action:    requireSession(env, noteListAction(env)),
				},
			},
		},
		{
			Name:  "transmission",
			Usage: "Manage transmissions",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "Add a transmission to a patient",
					ArgsUsage: "<patient id>",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "nom-medecin", Usage: "doctor last name"},
						cli.StringFlag{Name: "prenom-medecin", Usage: "doctor first name"},
						cli.StringFlag{Name: "texte", Usage: "transmission content"},
					},
					Action: requireSession(env, transmissionAddAction(env)),
				},
				{
					Name:      "list",
					Usage:     "List the transmissions of a patient",
					ArgsUsage: "<patient id>",
					Action:    requireSession(env, transmissionListAction(env)),
				},
			},
		},
		{
			Name:  "user",
			Usage: "Manage users",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "List users",
					Action: requireSession(env, userListAction(env)),
				},
				{
					Name:  "add",
					Usage: "Add a user",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "username"},
						cli.StringFlag{Name: "prenom"},
						cli.StringFlag{Name: "nom"},
						cli.StringFlag{Name: "password"},
						cli.StringFlag{Name: "role", Usage: "administrateur, secretaire or medecin"},
					},
					Action: requireSession(env, userAddAction(env)),
				},
				{
					Name:      "delete",
					Usage:     "Delete a user",
					ArgsUsage: "<user id>",
					Action:    requireSession(env, userDeleteAction(env)),
				},
			},
		},
		{
			Name:      "alert",
			Usage:     "Show the diabetes risk alert of a patient",
			ArgsUsage: "<patient id>",
			Action:    requireSession(env, alertAction(env)),
		},
		{
			Name:  "alert-summary",
			Usage: "List the patients with a diabetes risk",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "notify", Usage: "send the summary to the configured WhatsApp group"},
			},
			Action: requireSession(env, alertSummaryAction(env)),
		},
		{
			Name:  "register-chat-device",
			Usage: "Register the WhatsApp device locally",
			Action: func(c *cli.Context) error {
				return whatsapp.NewClient(env.config.WhatsAppDB).RegisterDevice(env.ctx)
			},
		},
		{
			Name:  "list-chat-groups",
			Usage: "List the WhatsApp groups of the registered device",
			Action: func(c *cli.Context) error {
				return whatsapp.NewClient(env.config.WhatsAppDB).PrintGroupList(env.ctx)
			},
		},
		{
			Name:   "start-bot",
			Usage:  "Answer risk alert requests sent over WhatsApp",
			Action: requireSession(env, startBotAction(env)),
		},
	}
}

func loginAction(env *environment, c *cli.Context) error {
	username := c.String("username")
	if username == "" {
		username = env.config.Username
	}
	password := c.String("password")
	if password == "" {
		password = env.config.Password
	}
	if password == "" && username != "" && env.readPassword != nil {
		var err error
		password, err = env.readPassword()
		if err != nil {
			return err
		}
	}
	if err := requireFields(field{"username", username}, field{"password", password}); err != nil {
		return err
	}

	if err := env.client.Login(env.ctx, username, password); err != nil {
		return err
	}
	log.Info("Connexion réussie.")
	return nil
}

func whoamiAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		token, _, err := env.session.Get(ctx)
		if err != nil {
			return err
		}
		claims, err := ParseTokenClaims(token)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "Bonjour %s %s (%s, rôle : %s)\n", claims.Prenom, claims.Nom, claims.Username, claims.Role)
		if !claims.ExpiresAt.IsZero() {
			fmt.Fprintf(env.out, "Session valable jusqu'au %s\n", claims.ExpiresAt.Local().Format("02/01/2006 15:04"))
		}
		if claims.Expired(time.Now()) {
			log.Warn("Le jeton de session a expiré, reconnectez-vous avec 'medilabo login'.")
		}
		return nil
	}
}

func patientFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "prenom"},
		cli.StringFlag{Name: "nom"},
		cli.StringFlag{Name: "date-naissance", Usage: "YYYY-MM-DD"},
		cli.StringFlag{Name: "genre", Usage: "masculin or feminin"},
		cli.StringFlag{Name: "adresse"},
		cli.StringFlag{Name: "telephone"},
	}
}

func patientFromFlags(c *cli.Context) medilabo.Patient {
	return medilabo.Patient{
		Prenom:        c.String("prenom"),
		Nom:           c.String("nom"),
		DateNaissance: c.String("date-naissance"),
		Genre:         c.String("genre"),
		Adresse:       c.String("adresse"),
		Telephone:     c.String("telephone"),
	}
}

func printPatients(w io.Writer, patients []medilabo.Patient) {
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tPrénom\tNom\tDate de naissance\tGenre\tAdresse\tTéléphone\tRendez-vous")
	for _, patient := range patients {
		var rdvs []string
		for _, rdv := range patient.RdvList {
			rdvs = append(rdvs, rdv.JourRdv+" - "+rdv.HeureRdv)
		}
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			patient.ID, patient.Prenom, patient.Nom, patient.DateNaissance, patient.Genre,
			patient.Adresse, patient.Telephone, strings.Join(rdvs, ", "))
	}
	table.Flush()
}

func patientListAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		patients, err := env.client.ListPatients(ctx)
		if err != nil {
			return fmt.Errorf("failed to load patients: %w", err)
		}
		printPatients(env.out, patients)
		return nil
	}
}

func patientAddAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		created, err := env.client.AddPatient(ctx, patientFromFlags(c))
		if err != nil {
			return err
		}
		log.Infof("Patient ajouté avec succès ! (ID %d)", created.ID)
		return nil
	}
}

func patientUpdateAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		current, err := env.client.GetPatient(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load patient %s: %w", id, err)
		}

		changes := patientFromFlags(c)
		patient := medilabo.Patient{
			ID:            current.ID,
			Prenom:        firstNonEmpty(changes.Prenom, current.Prenom),
			Nom:           firstNonEmpty(changes.Nom, current.Nom),
			DateNaissance: firstNonEmpty(changes.DateNaissance, current.DateNaissance),
			Genre:         firstNonEmpty(changes.Genre, current.Genre),
			Adresse:       firstNonEmpty(changes.Adresse, current.Adresse),
			Telephone:     firstNonEmpty(changes.Telephone, current.Telephone),
		}
		err = requireFields(
			field{"prenom", patient.Prenom},
			field{"nom", patient.Nom},
			field{"date-naissance", patient.DateNaissance},
			field{"genre", patient.Genre},
			field{"adresse", patient.Adresse},
			field{"telephone", patient.Telephone},
		)
		if err != nil {
			return err
		}

		if _, err := env.client.UpdatePatient(ctx, id, patient); err != nil {
			return err
		}
		log.Info("Patient modifié avec succès !")
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// DeletePatientFromList deletes a patient and returns the list without it.
// On failure the list is returned unchanged.
func DeletePatientFromList(ctx context.Context, client *MedilaboClient, patients []medilabo.Patient, id string) ([]medilabo.Patient, error) {
	if err := client.DeletePatient(ctx, id); err != nil {
		return patients, err
	}
	remaining := make([]medilabo.Patient, 0, len(patients))
	for _, patient := range patients {
		if strconv.FormatInt(patient.ID, 10) != id {
			remaining = append(remaining, patient)
		}
	}
	return remaining, nil
}

func patientDeleteAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		if !c.Bool("list") {
			if err := env.client.DeletePatient(ctx, id); err != nil {
				return fmt.Errorf("failed to delete patient %s: %w", id, err)
			}
			log.Infof("Patient %s supprimé.", id)
			return nil
		}

		patients, err := env.client.ListPatients(ctx)
		if err != nil {
			return fmt.Errorf("failed to load patients: %w", err)
		}
		remaining, err := DeletePatientFromList(ctx, env.client, patients, id)
		if err != nil {
			return fmt.Errorf("failed to delete patient %s: %w", id, err)
		}
		log.Infof("Patient %s supprimé.", id)
		printPatients(env.out, remaining)
		return nil
	}
}

func patientShowAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		details, err := FetchPatientDetails(ctx, env.client, id)
		if err != nil {
			return err
		}
		details.Print(env.out, env.colored)
		return nil
	}
}

func patientExportAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		path := c.Args().Get(0)
		if path == "" {
			path = fmt.Sprintf("patients-%s.csv", time.Now().Format("2006-01-02"))
		}
		patients, err := env.client.ListPatients(ctx)
		if err != nil {
			return fmt.Errorf("failed to load patients: %w", err)
		}

		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := WritePatientsCSV(f, patients); err != nil {
			return fmt.Errorf("failed to write '%s': %w", path, err)
		}
		log.Infof("%d patient(s) exporté(s) dans '%s'", len(patients), path)
		return nil
	}
}

func rdvAddAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		rdv := medilabo.NewRdv{
			PatientID:  id,
			NomMedecin: c.String("medecin"),
			JourRdv:    c.String("jour"),
			HeureRdv:   c.String("heure"),
		}
		err = requireFields(field{"medecin", rdv.NomMedecin}, field{"jour", rdv.JourRdv}, field{"heure", rdv.HeureRdv})
		if err != nil {
			return err
		}
		if err := env.client.AddRdv(ctx, rdv); err != nil {
			return err
		}
		log.Info("Rendez-vous ajouté avec succès !")
		return nil
	}
}

func noteAddAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		note := medilabo.NewNote{
			PatientID:     id,
			NomMedecin:    c.String("nom-medecin"),
			PrenomMedecin: c.String("prenom-medecin"),
			Note:          c.String("note"),
		}
		if _, err := env.client.AddNote(ctx, note); err != nil {
			return err
		}
		log.Info("Note ajoutée avec succès !")
		return nil
	}
}

func noteListAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		notes, err := env.client.GetNotesOfPatient(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load notes of patient %s: %w", id, err)
		}
		if len(notes) == 0 {
			fmt.Fprintln(env.out, "Aucune note")
		}
		for _, note := range notes {
			fmt.Fprintf(env.out, "%s Dr %s %s : %s\n", note.DateNote, note.Medecin.NomMedecin, note.Medecin.PrenomMedecin, note.Note)
		}
		return nil
	}
}

func transmissionAddAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		transmission := medilabo.Transmission{
			PatientID:     id,
			NomMedecin:    c.String("nom-medecin"),
			PrenomMedecin: c.String("prenom-medecin"),
			Transmission:  c.String("texte"),
		}
		if _, err := env.client.AddTransmission(ctx, transmission); err != nil {
			return err
		}
		log.Info("Transmission ajoutée avec succès !")
		return nil
	}
}

func transmissionListAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		transmissions, err := env.client.GetTransmissionsOfPatient(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load transmissions of patient %s: %w", id, err)
		}
		if len(transmissions) == 0 {
			fmt.Fprintln(env.out, "Aucune transmission")
		}
		for _, transmission := range transmissions {
			fmt.Fprintf(env.out, "%s Dr %s %s : %s\n", transmission.DateTransmission, transmission.NomMedecin, transmission.PrenomMedecin, transmission.Transmission)
		}
		return nil
	}
}

func userListAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		users, err := env.client.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		table := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(table, "ID\tUsername\tPrénom\tNom\tRôle")
		for _, user := range users {
			fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\n", user.ID, user.Username, user.Prenom, user.Nom, user.Role)
		}
		table.Flush()
		return nil
	}
}

func userAddAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		user := medilabo.Utilisateur{
			Username: c.String("username"),
			Prenom:   c.String("prenom"),
			Nom:      c.String("nom"),
			Password: c.String("password"),
			Role:     c.String("role"),
		}
		err := requireFields(field{"prenom", user.Prenom}, field{"nom", user.Nom}, field{"password", user.Password})
		if err != nil {
			return err
		}
		if _, err := env.client.AddUser(ctx, user); err != nil {
			return err
		}
		log.Info("Utilisateur ajouté avec succès !")
		return nil
	}
}

func userDeleteAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "user id")
		if err != nil {
			return err
		}
		if err := env.client.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user %s: %w", id, err)
		}
		log.Infof("Utilisateur %s supprimé.", id)
		return nil
	}
}

func alertAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		id, err := requireArg(c, "patient id")
		if err != nil {
			return err
		}
		level, err := env.client.FetchRiskLevel(ctx, id)
		if err != nil {
			fmt.Fprintln(env.out, NewRiskFailureDisplay(id, err).Render(env.colored))
			return fmt.Errorf("failed to fetch risk level for patient %s: %w", id, err)
		}
		fmt.Fprintln(env.out, NewRiskDisplay(id, level).Render(env.colored))
		return nil
	}
}

func alertSummaryAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		limiter := rate.NewLimiter(rate.Limit(env.config.RateLimit), 1)
		summary, err := BuildRiskSummary(ctx, env.client, limiter)
		if err != nil {
			return err
		}
		fmt.Fprint(env.out, summary.String())

		if !c.Bool("notify") {
			return nil
		}
		if env.config.WhatsAppNotificationGroup == "" {
			return fmt.Errorf("no WhatsApp group Id provided. Skipping WhatsApp notification")
		}
		jid, err := types.ParseJID(env.config.WhatsAppNotificationGroup)
		if err != nil {
			return err
		}
		return whatsapp.NewClient(env.config.WhatsAppDB).SendMessage(ctx, summary.String(), jid)
	}
}

func startBotAction(env *environment) sessionAction {
	return func(ctx context.Context, c *cli.Context) error {
		whatsAppClient := whatsapp.NewClient(env.config.WhatsAppDB)
		var botService = BotService{
			medilaboClient: env.client,
			chatClient:     whatsAppClient,
			limiter:        rate.NewLimiter(rate.Limit(env.config.RateLimit), 1),
		}
		whatsAppClient.SetMessageCallback(func(senderName string, senderId types.JID, chatId types.JID, content string) {
			log.Infof("Received message from '%s': %s", senderName, content)
			botService.HandleMessage(ctx, senderName, senderId, chatId, content)
		})
		return whatsAppClient.StartBot(ctx)
	}
}
