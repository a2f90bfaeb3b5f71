package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/citamed/citamed/internal/config"
	"github.com/citamed/citamed/internal/domain/appointment"
	"github.com/citamed/citamed/internal/domain/dosing"
	"github.com/citamed/citamed/internal/domain/prescription"
	"github.com/citamed/citamed/internal/domain/schedule"
	"github.com/citamed/citamed/internal/engine"
	"github.com/citamed/citamed/internal/platform/notify"
)

var (
	cfg      *config.Config
	logger   zerolog.Logger
	eng      *engine.Engine
	notifier notify.Notifier
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "citamed",
		Short:         "CitaMed medical appointment client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger = newLogger(cfg)
			eng = engine.New(cfg, logger)
			notifier = notify.NewConsole(os.Stdout, os.Stderr)
			return nil
		},
	}

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(medicationsCmd())
	rootCmd.AddCommand(prescriptionCmd())
	rootCmd.AddCommand(dosesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := eng.Login(cmd.Context(), email, password)
			if err != nil {
				notifier.Failure("Inicio de sesión", err, "No se pudo iniciar sesión")
				return err
			}
			notifier.Success("Inicio de sesión", fmt.Sprintf("Bienvenido %s (%s)", sess.Name, sess.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return eng.Logout()
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, found := eng.Session()
			if !found {
				return engine.ErrNotLoggedIn
			}
			fmt.Printf("%s (%s)\n", sess.Name, sess.Role)

			users, err := eng.Users()
			if err != nil {
				return err
			}
			switch {
			case sess.IsDoctor():
				p, err := users.DoctorProfile(cmd.Context())
				if err != nil {
					notifier.Failure("Perfil", err, "No se pudo obtener la información del médico")
					return err
				}
				fmt.Printf("  %s (%s)\n", p.Email, p.Specialty)
			case sess.IsPatient():
				p, err := users.PatientProfile(cmd.Context())
				if err != nil {
					notifier.Failure("Perfil", err, "No se pudo obtener la información del usuario")
					return err
				}
				fmt.Printf("  %s\n", p.Email)
			}
			return nil
		},
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var specialty, phone string
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update your doctor profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := eng.Users()
			if err != nil {
				return err
			}
			if err := users.UpdateDoctor(cmd.Context(), specialty, phone); err != nil {
				notifier.Failure("Perfil", err, "No se pudo actualizar el perfil")
				return err
			}
			notifier.Success("Perfil", "Perfil actualizado")
			return nil
		},
	}
	updateCmd.Flags().StringVar(&specialty, "specialty", "", "medical specialty")
	updateCmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.AddCommand(updateCmd)

	return cmd
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"citas"},
		Short:   "List and transition your appointments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := eng.Appointments()
			if err != nil {
				return err
			}
			appts, err := svc.List(cmd.Context())
			if err != nil {
				notifier.Failure("Citas", err, "No se pudieron cargar las citas")
				return err
			}
			for _, a := range appts {
				fmt.Printf("%d  %s  %-10s  %s (Dr. %s)\n",
					a.ID, a.ScheduledAt.Format("2006-01-02 15:04"), a.Status, a.Reason, a.Doctor.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(transitionCmd("confirm", "Confirm a pending appointment",
		func(ctx context.Context, svc *appointment.Service, appt *appointment.Appointment) error {
			return svc.Confirm(ctx, appt)
		}, "Cita confirmada correctamente", "Error al confirmar la cita"))
	cmd.AddCommand(transitionCmd("cancel", "Cancel an appointment",
		func(ctx context.Context, svc *appointment.Service, appt *appointment.Appointment) error {
			return svc.Cancel(ctx, appt)
		}, "Cita cancelada correctamente", "Error al cancelar la cita"))

	return cmd
}

func transitionCmd(use, short string, fn func(context.Context, *appointment.Service, *appointment.Appointment) error, okMsg, failMsg string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <appointment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("appointment id %q is not numeric", args[0])
			}
			svc, err := eng.Appointments()
			if err != nil {
				return err
			}
			appt, err := svc.Get(cmd.Context(), id)
			if err != nil {
				notifier.Failure("Cita", err, failMsg)
				return err
			}
			if err := fn(cmd.Context(), svc, appt); err != nil {
				notifier.Failure("Cita", err, failMsg)
				return err
			}
			notifier.Success("Cita", okMsg)
			return nil
		},
	}
}

func bookCmd() *cobra.Command {
	var doctorID int64
	var date, slot, reason string
	var duration int
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment; without --doctor it lists availability for the date",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.ParseInLocation("2006-01-02", date, time.Local)
			if err != nil {
				return fmt.Errorf("date %q: want YYYY-MM-DD", date)
			}

			if doctorID == 0 {
				svc, err := eng.Schedules()
				if err != nil {
					return err
				}
				avail, err := svc.AvailabilityFor(cmd.Context(), day)
				if err != nil {
					notifier.Failure("Horarios", err, "No se pudieron obtener los horarios disponibles")
					return err
				}
				for _, a := range avail {
					fmt.Printf("%d  %s (%s): %v\n", a.Doctor.ID, a.Doctor.Name, a.Doctor.Specialty, a.Slots)
				}
				return nil
			}

			at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+slot, time.Local)
			if err != nil {
				return fmt.Errorf("slot %q: want HH:MM", slot)
			}
			svc, err := eng.Appointments()
			if err != nil {
				return err
			}
			appt, err := svc.Book(cmd.Context(), appointment.BookingRequest{
				DoctorID:    doctorID,
				ScheduledAt: at,
				Duration:    duration,
				Reason:      reason,
			})
			if err != nil {
				notifier.Failure("Agendar cita", err, "No se pudo agendar la cita")
				return err
			}
			notifier.Success("Agendar cita", fmt.Sprintf("Cita %d agendada para %s", appt.ID, at.Format("2006-01-02 15:04")))
			return nil
		},
	}
	cmd.Flags().Int64Var(&doctorID, "doctor", 0, "doctor id")
	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&slot, "slot", "", "slot start (HH:MM)")
	cmd.Flags().StringVar(&reason, "reason", "", "visit reason")
	cmd.Flags().IntVar(&duration, "duration", int(schedule.SlotLength.Minutes()), "duration in minutes")
	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage your weekly attendance blocks (doctors)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := eng.Schedules()
			if err != nil {
				return err
			}
			blocks, err := svc.ListOwn(cmd.Context())
			if err != nil {
				notifier.Failure("Horarios", err, "No se pudieron cargar los horarios")
				return err
			}
			for _, b := range blocks {
				fmt.Printf("%d  %-10s %s–%s\n", b.ID, b.Day, b.StartTime, b.EndTime)
			}
			return nil
		},
	})

	var day, start, end string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a block",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := eng.Schedules()
			if err != nil {
				return err
			}
			block, err := svc.AddBlock(cmd.Context(), day, start, end)
			if err != nil {
				notifier.Failure("Horarios", err, "No se pudo agregar el horario")
				return err
			}
			notifier.Success("Horarios", fmt.Sprintf("Horario %d agregado", block.ID))
			return nil
		},
	}
	addCmd.Flags().StringVar(&day, "day", "", "weekday (e.g. LUNES)")
	addCmd.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	addCmd.Flags().StringVar(&end, "end", "", "end time (HH:MM)")
	addCmd.MarkFlagRequired("day")
	addCmd.MarkFlagRequired("start")
	addCmd.MarkFlagRequired("end")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <block-id>",
		Short: "Remove a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("block id %q is not numeric", args[0])
			}
			svc, err := eng.Schedules()
			if err != nil {
				return err
			}
			if err := svc.RemoveBlock(cmd.Context(), id); err != nil {
				notifier.Failure("Horarios", err, "No se pudo eliminar el horario")
				return err
			}
			notifier.Success("Horarios", "Horario eliminado")
			return nil
		},
	})

	return cmd
}

func medicationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "medications",
		Short: "List the medication catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := eng.NewPrescriptionBuilder()
			if err != nil {
				return err
			}
			meds, err := b.Catalog(cmd.Context())
			if err != nil {
				notifier.Failure("Medicamentos", err, "No se pudieron cargar los datos")
				return err
			}
			for _, m := range meds {
				fmt.Printf("%d  %s (%s, %s)\n", m.ID, m.Name, m.Presentation, m.Type)
			}
			return nil
		},
	}
}

func prescriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prescription",
		Aliases: []string{"receta"},
		Short:   "Create and edit an appointment's prescription (doctors)",
	}

	var annotations string
	createCmd := &cobra.Command{
		Use:   "create <appointment-id>",
		Short: "Create the appointment's prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("appointment id %q is not numeric", args[0])
			}
			b, err := eng.NewPrescriptionBuilder()
			if err != nil {
				return err
			}
			p, err := b.Create(cmd.Context(), id, annotations)
			if err != nil {
				notifier.Failure("Receta", err, "No se pudo crear la receta")
				return err
			}
			notifier.Success("Receta", fmt.Sprintf("Receta %d creada exitosamente", p.ID))
			return nil
		},
	}
	createCmd.Flags().StringVar(&annotations, "annotations", "", "medical notes (defaults to a placeholder)")
	cmd.AddCommand(createCmd)

	var medicationID int64
	var frequency, days, quantity string
	addCmd := &cobra.Command{
		Use:   "add <appointment-id>",
		Short: "Attach a medication regimen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBuilder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			reg, err := b.AddRegimen(cmd.Context(), prescription.RegimenInput{
				MedicationID: medicationID,
				Frequency:    frequency,
				TotalDays:    days,
				DoseQuantity: quantity,
			})
			if err != nil {
				notifier.Failure("Receta", err, "No se pudo agregar el medicamento")
				return err
			}
			notifier.Success("Receta", fmt.Sprintf("%s cada %s por %d días", reg.Medication.Name, reg.Frequency, reg.TotalDays))
			return nil
		},
	}
	addCmd.Flags().Int64Var(&medicationID, "medication", 0, "catalog medication id")
	addCmd.Flags().StringVar(&frequency, "frequency", "08:00", "dose interval (HH:MM or hours)")
	addCmd.Flags().StringVar(&days, "days", "7", "treatment days")
	addCmd.Flags().StringVar(&quantity, "quantity", "1 tableta", "quantity per dose")
	addCmd.MarkFlagRequired("medication")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <appointment-id> <regimen-id>",
		Short: "Detach a medication regimen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBuilder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			regID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("regimen id %q is not numeric", args[1])
			}
			if err := b.RemoveRegimen(cmd.Context(), regID); err != nil {
				notifier.Failure("Receta", err, "No se pudo eliminar el medicamento")
				return err
			}
			notifier.Success("Receta", "Medicamento eliminado")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <appointment-id>",
		Short: "Show the appointment's prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBuilder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := b.Prescription()
			fmt.Printf("Receta %d: %s\n", p.ID, p.Annotations)
			for _, reg := range p.Regimens {
				fmt.Printf("  %d  %s: %s cada %s por %d días (%d/%d dosis)\n",
					reg.ID, reg.Medication.Name, reg.DoseQuantity, reg.Frequency, reg.TotalDays, reg.DosesTaken, reg.TotalDoses)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "finish <appointment-id>",
		Short: "Save the prescription and complete the appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("appointment id %q is not numeric", args[0])
			}
			b, err := loadBuilder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			svc, err := eng.Appointments()
			if err != nil {
				return err
			}
			appt, err := svc.Get(cmd.Context(), id)
			if err != nil {
				notifier.Failure("Receta", err, "No se pudo guardar la receta")
				return err
			}
			if err := eng.FinishConsultation(cmd.Context(), svc, b, appt); err != nil {
				notifier.Failure("Receta", err, "No se pudo guardar la receta")
				return err
			}
			notifier.Success("Receta", "Receta guardada y cita completada")
			return nil
		},
	})

	return cmd
}

// loadBuilder resolves an appointment id argument into a builder holding the
// appointment's existing prescription.
func loadBuilder(ctx context.Context, arg string) (*prescription.Builder, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("appointment id %q is not numeric", arg)
	}
	b, err := eng.NewPrescriptionBuilder()
	if err != nil {
		return nil, err
	}
	if _, err := b.Load(ctx, id); err != nil {
		notifier.Failure("Receta", err, "No se pudo cargar la receta")
		return nil, err
	}
	return b, nil
}

func dosesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doses",
		Short: "Track medication doses for an appointment's prescription",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <appointment-id>",
		Short: "Show dose progress and next-dose countdowns",
		RunE:  runDoses(false),
		Args:  cobra.ExactArgs(1),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch <appointment-id>",
		Short: "Continuously refresh countdowns until interrupted",
		RunE:  runDoses(true),
		Args:  cobra.ExactArgs(1),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "take <appointment-id> <regimen-id>",
		Short: "Record one taken dose",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := loadTracker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			regID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("regimen id %q is not numeric", args[1])
			}
			if err := tracker.RecordDose(cmd.Context(), regID, time.Now()); err != nil {
				notifier.Failure("Dosis", err, "No se pudo registrar la dosis")
				return err
			}
			notifier.Success("Dosis", "Dosis registrada")
			printStatuses(tracker.Statuses(time.Now()))
			return nil
		},
	})

	return cmd
}

func runDoses(watch bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		tracker, err := loadTracker(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !watch {
			printStatuses(tracker.Statuses(time.Now()))
			return nil
		}

		// The watcher dies with the command: Ctrl-C cancels the context,
		// which stops the ticker before the process goes away.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		tracker.Watch(ctx, cfg.DosePollInterval(), printStatuses)
		return nil
	}
}

func loadTracker(ctx context.Context, arg string) (*dosing.Tracker, error) {
	b, err := loadBuilder(ctx, arg)
	if err != nil {
		return nil, err
	}
	tracker, err := eng.NewDoseTracker()
	if err != nil {
		return nil, err
	}
	tracker.SetRegimens(b.Regimens(), time.Now())
	return tracker, nil
}

func printStatuses(statuses []dosing.Status) {
	for _, st := range statuses {
		reg := st.Regimen
		if st.Finished {
			fmt.Printf("%d  %-20s  tratamiento completado (%d/%d)\n", reg.ID, reg.Medication.Name, reg.DosesTaken, reg.TotalDoses)
			continue
		}
		fmt.Printf("%d  %-20s  próxima dosis en %s (%d/%d)\n", reg.ID, reg.Medication.Name, st.Left, reg.DosesTaken, reg.TotalDoses)
	}
}
