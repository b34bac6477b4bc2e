package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/models"
	"github.com/grcsuite/auditoria_backend/utils"
)

// End-to-end lifecycle regression over a real MySQL/Redis pair:
// program creation with fiscal-year slug, phase gating, planning revert
// rejection, association narrowing conflicts and slug reservation across
// suspension.
func TestAuditProgramLifecycle_Regression(t *testing.T) {
	ctx := setupIntegration(t)

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		Name:                 "Empresa de Prueba",
		FiscalYearStartMonth: 1,
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	if company.FiscalYearStart() != time.January {
		t.Fatalf("fiscal year start: got %v", company.FiscalYearStart())
	}

	// catalog: one process covered by one risk with one active control
	process, err := models.CreateProcess(ctx, &models.NewProcess{Name: "Tesorería"})
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}
	control, err := models.CreateControl(ctx, &models.NewControl{
		Name:                "Conciliación bancaria",
		TeoricEffectiveness: models.EffectivenessOptimo,
	})
	if err != nil {
		t.Fatalf("CreateControl: %v", err)
	}
	if _, err := models.CreateRisk(ctx, &models.NewRisk{
		Name:        "Fraude en pagos",
		Probability: models.ProbabilityAlta,
		Impact:      models.ImpactAlto,
		ProcessIds:  []int{process.ID},
		ControlIds:  []int{control.ID},
	}); err != nil {
		t.Fatalf("CreateRisk: %v", err)
	}

	program, err := models.CreateAuditProgram(ctx, &models.NewAuditProgram{
		Name:              "Auditoría de TI",
		AuditedPeriodFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AuditedPeriodTo:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		AuditStartDate:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AuditEndDate:      time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateAuditProgram: %v", err)
	}
	if program.Slug != "auditoría-de-ti-FY2025" {
		t.Fatalf("slug: got %q", program.Slug)
	}
	if program.Status != models.StatusPorIniciar {
		t.Fatalf("initial status: got %q", program.Status)
	}

	// same name in the same fiscal year collides
	if _, err := models.CreateAuditProgram(ctx, &models.NewAuditProgram{
		Name:              "Auditoría de TI",
		AuditedPeriodFrom: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		AuditedPeriodTo:   time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		AuditStartDate:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AuditEndDate:      time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	}); err == nil {
		t.Fatal("expected slug collision")
	} else {
		var uniqErr *utils.UniquenessConflictError
		if !errors.As(err, &uniqErr) {
			t.Fatalf("expected UniquenessConflictError, got %v", err)
		}
	}

	identifier := program.Slug

	// execution work is gated until planning completes
	if _, err := models.CreateAuditTest(ctx, identifier, &models.NewAuditTest{Name: "Prueba de accesos"}); err == nil {
		t.Fatal("expected phase conflict creating test before planning completes")
	}

	// planning: scope the program, assign the auditor
	if _, err := models.UpdateProgramProcessControls(ctx, identifier, []models.ProcessControlPair{
		{ProcessId: process.ID, ControlId: control.ID},
	}); err != nil {
		t.Fatalf("UpdateProgramProcessControls: %v", err)
	}

	if _, err := models.UpdatePlanningStatus(ctx, identifier, models.StatusEnPlanificacion); err != nil {
		t.Fatalf("UpdatePlanningStatus: %v", err)
	}
	program, err = models.GetAuditProgram(ctx, identifier)
	if err != nil {
		t.Fatalf("GetAuditProgram: %v", err)
	}
	if program.Status != models.StatusEnPlanificacion {
		t.Fatalf("aggregate after planning start: got %q", program.Status)
	}

	if _, err := models.UpdatePlanningStatus(ctx, identifier, models.StatusCompletado); err != nil {
		t.Fatalf("complete planning: %v", err)
	}

	test, err := models.CreateAuditTest(ctx, identifier, &models.NewAuditTest{Name: "Prueba de accesos"})
	if err != nil {
		t.Fatalf("CreateAuditTest: %v", err)
	}
	if test.Slug != "prueba-de-accesos-FY2025" {
		t.Fatalf("test slug: got %q", test.Slug)
	}
	if _, err := models.UpdateTestControls(ctx, test.ID, []models.ProcessControlPair{
		{ProcessId: process.ID, ControlId: control.ID},
	}); err != nil {
		t.Fatalf("UpdateTestControls: %v", err)
	}
	if _, err := models.UpdateAuditTestStatus(ctx, test.ID, models.StatusEnProgreso); err != nil {
		t.Fatalf("UpdateAuditTestStatus: %v", err)
	}

	// planning can no longer revert once execution moved
	if _, err := models.UpdatePlanningStatus(ctx, identifier, models.StatusEnPlanificacion); err == nil {
		t.Fatal("expected phase conflict reverting planning")
	} else {
		var phaseErr *utils.PhaseConflictError
		if !errors.As(err, &phaseErr) {
			t.Fatalf("expected PhaseConflictError, got %v", err)
		}
	}
	// and the stored statuses are untouched by the rejected revert
	program, err = models.GetAuditProgram(ctx, identifier)
	if err != nil {
		t.Fatalf("re-fetch program: %v", err)
	}
	if program.PlanningStatus != models.StatusCompletado || program.ExecutionStatus != models.StatusEnEjecucion {
		t.Fatalf("statuses mutated by rejected revert: planning=%q execution=%q",
			program.PlanningStatus, program.ExecutionStatus)
	}

	// narrowing the program scope fails while the test references the pair
	if _, err := models.UpdateProgramProcessControls(ctx, identifier, nil); err == nil {
		t.Fatal("expected association conflict removing referenced pair")
	} else {
		var assocErr *utils.AssociationConflictError
		if !errors.As(err, &assocErr) {
			t.Fatalf("expected AssociationConflictError, got %v", err)
		}
	}
	// the failed update left the scope intact
	pairs, err := models.GetProgramProcessControls(ctx, program.ID)
	if err != nil {
		t.Fatalf("GetProgramProcessControls: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("scope rows after aborted update: got %d", len(pairs))
	}

	// release the test's hold, then narrowing succeeds
	if _, err := models.UpdateTestControls(ctx, test.ID, nil); err != nil {
		t.Fatalf("clear test controls: %v", err)
	}
	if _, err := models.UpdateProgramProcessControls(ctx, identifier, nil); err != nil {
		t.Fatalf("narrow program scope: %v", err)
	}

	// finish the lifecycle
	if _, err := models.UpdateAuditTestStatus(ctx, test.ID, models.StatusCompletado); err != nil {
		t.Fatalf("complete test: %v", err)
	}
	if _, err := models.UpdateExecutionStatus(ctx, identifier, models.StatusCompletado); err != nil {
		t.Fatalf("complete execution: %v", err)
	}
	if _, err := models.UpdateReportStatus(ctx, identifier, models.StatusEnProgreso); err != nil {
		t.Fatalf("start reporting: %v", err)
	}
	program, _ = models.GetAuditProgram(ctx, identifier)
	if program.Status != models.StatusEnReporte {
		t.Fatalf("aggregate in reporting: got %q", program.Status)
	}
	if _, err := models.UpdateReportStatus(ctx, identifier, models.StatusCompletado); err != nil {
		t.Fatalf("complete reporting: %v", err)
	}
	program, _ = models.GetAuditProgram(ctx, identifier)
	if program.Status != models.StatusCompletado {
		t.Fatalf("final aggregate: got %q", program.Status)
	}

	// suspension blocks everything, activation restores the derived status
	if _, err := models.SuspendAuditProgram(ctx, identifier); err != nil {
		t.Fatalf("SuspendAuditProgram: %v", err)
	}
	if _, err := models.UpdateReportNarrative(ctx, identifier, &models.ReportNarrative{ReportTitle: "Informe"}); err == nil {
		t.Fatal("expected phase conflict on suspended program")
	}
	// the slug stays reserved while suspended
	if _, err := models.CreateAuditProgram(ctx, &models.NewAuditProgram{
		Name:              "Auditoría de TI",
		AuditedPeriodFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AuditedPeriodTo:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		AuditStartDate:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AuditEndDate:      time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	}); err == nil {
		t.Fatal("expected slug collision against suspended program")
	}
	program, err = models.ActivateAuditProgram(ctx, identifier)
	if err != nil {
		t.Fatalf("ActivateAuditProgram: %v", err)
	}
	if program.Status != models.StatusCompletado {
		t.Fatalf("status after activation: got %q", program.Status)
	}
}

// Findings and downstream rows: a finding's control subset must come from its
// test, and removing a test pair referenced by a finding is rejected.
func TestFindingControlSubset_Regression(t *testing.T) {
	ctx := setupIntegration(t)

	if _, err := models.CreateCompany(ctx, &models.NewCompany{
		Name:                 "Empresa de Prueba",
		FiscalYearStartMonth: 1,
	}); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	process, err := models.CreateProcess(ctx, &models.NewProcess{Name: "Compras"})
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}
	controlA, err := models.CreateControl(ctx, &models.NewControl{
		Name: "Segregación de funciones", TeoricEffectiveness: models.EffectivenessAceptable,
	})
	if err != nil {
		t.Fatalf("CreateControl A: %v", err)
	}
	controlB, err := models.CreateControl(ctx, &models.NewControl{
		Name: "Aprobación de órdenes", TeoricEffectiveness: models.EffectivenessOptimo,
	})
	if err != nil {
		t.Fatalf("CreateControl B: %v", err)
	}
	if _, err := models.CreateRisk(ctx, &models.NewRisk{
		Name:        "Compras no autorizadas",
		Probability: models.ProbabilityMedia,
		Impact:      models.ImpactAlto,
		ProcessIds:  []int{process.ID},
		ControlIds:  []int{controlA.ID, controlB.ID},
	}); err != nil {
		t.Fatalf("CreateRisk: %v", err)
	}

	program, err := models.CreateAuditProgram(ctx, &models.NewAuditProgram{
		Name:              "Auditoría de Compras",
		AuditedPeriodFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AuditedPeriodTo:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		AuditStartDate:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AuditEndDate:      time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateAuditProgram: %v", err)
	}
	if _, err := models.UpdateProgramProcessControls(ctx, program.Slug, []models.ProcessControlPair{
		{ProcessId: process.ID, ControlId: controlA.ID},
	}); err != nil {
		t.Fatalf("scope program: %v", err)
	}
	if _, err := models.UpdatePlanningStatus(ctx, program.Slug, models.StatusCompletado); err != nil {
		t.Fatalf("complete planning: %v", err)
	}

	test, err := models.CreateAuditTest(ctx, program.Slug, &models.NewAuditTest{Name: "Muestreo de órdenes"})
	if err != nil {
		t.Fatalf("CreateAuditTest: %v", err)
	}

	// pair outside the program scope is rejected
	if _, err := models.UpdateTestControls(ctx, test.ID, []models.ProcessControlPair{
		{ProcessId: process.ID, ControlId: controlB.ID},
	}); err == nil {
		t.Fatal("expected validation error for pair outside program scope")
	}
	if _, err := models.UpdateTestControls(ctx, test.ID, []models.ProcessControlPair{
		{ProcessId: process.ID, ControlId: controlA.ID},
	}); err != nil {
		t.Fatalf("UpdateTestControls: %v", err)
	}

	finding, err := models.CreateAuditFinding(ctx, &models.NewAuditFinding{
		IdAuditTest:    test.ID,
		Name:           "Órdenes sin aprobación",
		Classification: models.ClassificationImportante,
		FindingType:    models.FindingTypeNoConforme,
	})
	if err != nil {
		t.Fatalf("CreateAuditFinding: %v", err)
	}
	if finding.IdAuditProgram != program.ID {
		t.Fatalf("finding program id: got %d", finding.IdAuditProgram)
	}
	if _, err := models.UpdateFindingControls(ctx, finding.ID, []models.ProcessControlPair{
		{ProcessId: process.ID, ControlId: controlA.ID},
	}); err != nil {
		t.Fatalf("UpdateFindingControls: %v", err)
	}

	// the finding now holds the pair: the test cannot drop it
	if _, err := models.UpdateTestControls(ctx, test.ID, nil); err == nil {
		t.Fatal("expected association conflict removing pair referenced by finding")
	} else {
		var assocErr *utils.AssociationConflictError
		if !errors.As(err, &assocErr) {
			t.Fatalf("expected AssociationConflictError, got %v", err)
		}
	}

	// action plan rides on the finding
	plan, err := models.CreateActionPlan(ctx, &models.NewActionPlan{
		IdAuditFinding: finding.ID,
		Name:           "Implementar doble aprobación",
		ResponsibleId:  1,
		DueDate:        time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateActionPlan: %v", err)
	}
	if plan.Status != models.StatusPorIniciar {
		t.Fatalf("action plan default status: got %q", plan.Status)
	}
}

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "auditoria_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	// seeded admin user so history rows and responsible ids resolve
	hash, err := utils.HashPassword("test-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	db := config.GetDB()
	role := models.Role{Name: "Administrador", IsAdmin: utils.NewTrue()}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}
	user := models.User{
		Name: "Test", Username: "test", Email: "test@local",
		PasswordHash: string(hash), RoleId: role.ID, IsActive: utils.NewTrue(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserNameInContext(ctx, user.Name)
	ctx = utils.SetUsernameInContext(ctx, user.Username)
	ctx = utils.SetRoleIdInContext(ctx, role.ID)
	ctx = utils.SetIsAdminInContext(ctx, true)
	return ctx
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("auditoria-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("auditoria-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=auditoria_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
