package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AuditProcessControl is the program-level scope: one row per
// (process, control) pair the program audits.
type AuditProcessControl struct {
	ID             int       `gorm:"primary_key" json:"id"`
	IdAuditProgram int       `gorm:"index:idx_apc_pair,unique;not null" json:"id_audit_program"`
	IdProcess      int       `gorm:"index:idx_apc_pair,unique;not null" json:"id_process"`
	IdControl      int       `gorm:"index:idx_apc_pair,unique;not null" json:"id_control"`
	Process        *Process  `gorm:"foreignKey:IdProcess" json:"process,omitempty"`
	Control        *Control  `gorm:"foreignKey:IdControl" json:"control,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AuditTestControl narrows a test to a subset of the program's pairs. The
// program id is denormalized so subset checks stay single-table.
type AuditTestControl struct {
	ID             int       `gorm:"primary_key" json:"id"`
	IdAuditTest    int       `gorm:"index:idx_atc_pair,unique;not null" json:"id_audit_test"`
	IdAuditProgram int       `gorm:"index;not null" json:"id_audit_program"`
	IdProcess      int       `gorm:"index:idx_atc_pair,unique;not null" json:"id_process"`
	IdControl      int       `gorm:"index:idx_atc_pair,unique;not null" json:"id_control"`
	Process        *Process  `gorm:"foreignKey:IdProcess" json:"process,omitempty"`
	Control        *Control  `gorm:"foreignKey:IdControl" json:"control,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AuditFindingControl narrows a finding to a subset of its test's pairs.
type AuditFindingControl struct {
	ID             int       `gorm:"primary_key" json:"id"`
	IdAuditFinding int       `gorm:"index:idx_afc_pair,unique;not null" json:"id_audit_finding"`
	IdAuditTest    int       `gorm:"index;not null" json:"id_audit_test"`
	IdAuditProgram int       `gorm:"index;not null" json:"id_audit_program"`
	IdProcess      int       `gorm:"index:idx_afc_pair,unique;not null" json:"id_process"`
	IdControl      int       `gorm:"index:idx_afc_pair,unique;not null" json:"id_control"`
	Process        *Process  `gorm:"foreignKey:IdProcess" json:"process,omitempty"`
	Control        *Control  `gorm:"foreignKey:IdControl" json:"control,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AuditUser assigns an auditor to a program with hour budgets per phase.
type AuditUser struct {
	ID             int             `gorm:"primary_key" json:"id"`
	IdAuditProgram int             `gorm:"index:idx_au_pair,unique;not null" json:"id_audit_program"`
	IdUser         int             `gorm:"index:idx_au_pair,unique;not null" json:"id_user"`
	User           *User           `gorm:"foreignKey:IdUser" json:"user,omitempty"`
	PlanningHours  decimal.Decimal `gorm:"type:decimal(8,2)" json:"planning_hours"`
	FieldworkHours decimal.Decimal `gorm:"type:decimal(8,2)" json:"fieldwork_hours"`
	ExecutionHours decimal.Decimal `gorm:"type:decimal(8,2)" json:"execution_hours"`
	ReviewHours    decimal.Decimal `gorm:"type:decimal(8,2)" json:"review_hours"`
	ReportHours    decimal.Decimal `gorm:"type:decimal(8,2)" json:"report_hours"`
	FollowupHours  decimal.Decimal `gorm:"type:decimal(8,2)" json:"followup_hours"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AuditTestUser assigns a program auditor to one of its tests.
type AuditTestUser struct {
	ID          int       `gorm:"primary_key" json:"id"`
	IdAuditTest int       `gorm:"index:idx_atu_pair,unique;not null" json:"id_audit_test"`
	IdUser      int       `gorm:"index:idx_atu_pair,unique;not null" json:"id_user"`
	User        *User     `gorm:"foreignKey:IdUser" json:"user,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ProcessControlPair identifies one scope entry independent of the row id.
type ProcessControlPair struct {
	ProcessId int `json:"process_id" binding:"required"`
	ControlId int `json:"control_id" binding:"required"`
}

func pairSet(pairs []ProcessControlPair) map[ProcessControlPair]bool {
	set := make(map[ProcessControlPair]bool, len(pairs))
	for _, p := range pairs {
		set[p] = true
	}
	return set
}

// diffPairSets splits desired against existing the same way utils.DiffIdSets
// does for plain ids.
func diffPairSets(existing, desired []ProcessControlPair) (toAdd, toRemove []ProcessControlPair) {
	existingSet := pairSet(existing)
	desiredSet := pairSet(desired)
	for _, p := range desired {
		if !existingSet[p] {
			toAdd = append(toAdd, p)
		}
	}
	for _, p := range existing {
		if !desiredSet[p] {
			toRemove = append(toRemove, p)
		}
	}
	return toAdd, toRemove
}

func validatePairResources(ctx context.Context, pairs []ProcessControlPair) error {
	processIds := make([]int, 0, len(pairs))
	controlIds := make([]int, 0, len(pairs))
	for _, p := range pairs {
		processIds = append(processIds, p.ProcessId)
		controlIds = append(controlIds, p.ControlId)
	}
	if len(processIds) > 0 {
		if err := utils.ValidateResourcesId[Process](ctx, utils.UniqueSlice(processIds)); err != nil {
			return utils.ErrValidation("some selected processes do not exist")
		}
		if err := utils.ValidateResourcesId[Control](ctx, utils.UniqueSlice(controlIds)); err != nil {
			return utils.ErrValidation("some selected controls do not exist")
		}
	}
	return nil
}

// UpdateProgramProcessControls replaces the program's (process, control)
// scope with the desired set. The whole update is atomic: a single pair that
// cannot be removed (a test still references it) or added (its process has no
// active control) aborts everything.
func UpdateProgramProcessControls(ctx context.Context, identifier string, desired []ProcessControlPair) ([]*AuditProcessControl, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhasePlanning); err != nil {
		return nil, err
	}
	if err := validatePairResources(ctx, desired); err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditAssociation", "UpdateProgramProcessControls")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()

	var existingRows []*AuditProcessControl
	if err := tx.WithContext(ctx).Where("id_audit_program = ?", program.ID).Find(&existingRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existing := make([]ProcessControlPair, 0, len(existingRows))
	rowByPair := make(map[ProcessControlPair]*AuditProcessControl, len(existingRows))
	for _, row := range existingRows {
		pair := ProcessControlPair{ProcessId: row.IdProcess, ControlId: row.IdControl}
		existing = append(existing, pair)
		rowByPair[pair] = row
	}

	toAdd, toRemove := diffPairSets(existing, desired)

	// removals first: any downstream test reference vetoes the whole call
	for _, pair := range toRemove {
		row := rowByPair[pair]
		var refs int64
		err := tx.WithContext(ctx).Model(&AuditTestControl{}).
			Where("id_audit_program = ? AND id_process = ? AND id_control = ?", program.ID, pair.ProcessId, pair.ControlId).
			Count(&refs).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if refs > 0 {
			tx.Rollback()
			return nil, utils.ErrAssociationConflict("process/control pairs still referenced by audit tests cannot be removed")
		}
		if err := tx.WithContext(ctx).Delete(row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if len(toAdd) > 0 {
		addProcessIds := make([]int, 0, len(toAdd))
		for _, pair := range toAdd {
			addProcessIds = append(addProcessIds, pair.ProcessId)
		}
		counts, err := processActiveControlCounts(ctx, utils.UniqueSlice(addProcessIds))
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		for _, pair := range toAdd {
			if counts[pair.ProcessId] == 0 {
				tx.Rollback()
				return nil, utils.ErrValidation("some selected processes/controls have no active controls")
			}
		}
		rows := make([]*AuditProcessControl, 0, len(toAdd))
		for _, pair := range toAdd {
			rows = append(rows, &AuditProcessControl{
				IdAuditProgram: program.ID,
				IdProcess:      pair.ProcessId,
				IdControl:      pair.ControlId,
			})
		}
		if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", program.ID, "AuditProgram", "replaced process/control scope of "+program.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetProgramProcessControls(ctx, program.ID)
}

func GetProgramProcessControls(ctx context.Context, programId int) ([]*AuditProcessControl, error) {
	db := config.GetDB()
	var rows []*AuditProcessControl
	err := db.WithContext(ctx).
		Where("id_audit_program = ?", programId).
		Preload("Process").Preload("Control").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// NewAuditUser carries the per-phase hour budgets for one assigned auditor.
type NewAuditUser struct {
	IdUser         int             `json:"id_user" binding:"required"`
	PlanningHours  decimal.Decimal `json:"planning_hours"`
	FieldworkHours decimal.Decimal `json:"fieldwork_hours"`
	ExecutionHours decimal.Decimal `json:"execution_hours"`
	ReviewHours    decimal.Decimal `json:"review_hours"`
	ReportHours    decimal.Decimal `json:"report_hours"`
	FollowupHours  decimal.Decimal `json:"followup_hours"`
}

// UpdateProgramUsers replaces the program's auditor assignments. Removing an
// auditor still assigned to a test of the program aborts the update; hour
// budgets of kept auditors are overwritten in place.
func UpdateProgramUsers(ctx context.Context, identifier string, desired []*NewAuditUser) ([]*AuditUser, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhasePlanning); err != nil {
		return nil, err
	}

	desiredIds := make([]int, 0, len(desired))
	inputById := make(map[int]*NewAuditUser, len(desired))
	for _, input := range desired {
		desiredIds = append(desiredIds, input.IdUser)
		inputById[input.IdUser] = input
	}
	desiredIds = utils.UniqueSlice(desiredIds)
	if len(desiredIds) > 0 {
		if err := utils.ValidateResourcesId[User](ctx, desiredIds); err != nil {
			return nil, utils.ErrValidation("some selected users do not exist")
		}
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditAssociation", "UpdateProgramUsers")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()

	var existingRows []*AuditUser
	if err := tx.WithContext(ctx).Where("id_audit_program = ?", program.ID).Find(&existingRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existingIds := make([]int, 0, len(existingRows))
	rowByUser := make(map[int]*AuditUser, len(existingRows))
	for _, row := range existingRows {
		existingIds = append(existingIds, row.IdUser)
		rowByUser[row.IdUser] = row
	}

	toAdd, toRemove := utils.DiffIdSets(existingIds, desiredIds)

	for _, userId := range toRemove {
		var refs int64
		err := tx.WithContext(ctx).Model(&AuditTestUser{}).
			Joins("INNER JOIN audit_tests ON audit_tests.id = audit_test_users.id_audit_test").
			Where("audit_tests.id_audit_program = ? AND audit_test_users.id_user = ?", program.ID, userId).
			Count(&refs).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if refs > 0 {
			tx.Rollback()
			return nil, utils.ErrAssociationConflict("auditors still assigned to audit tests cannot be removed")
		}
		if err := tx.WithContext(ctx).Delete(rowByUser[userId]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	for _, userId := range toAdd {
		input := inputById[userId]
		row := AuditUser{
			IdAuditProgram: program.ID,
			IdUser:         userId,
			PlanningHours:  input.PlanningHours,
			FieldworkHours: input.FieldworkHours,
			ExecutionHours: input.ExecutionHours,
			ReviewHours:    input.ReviewHours,
			ReportHours:    input.ReportHours,
			FollowupHours:  input.FollowupHours,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// kept auditors get their budgets refreshed
	for _, userId := range desiredIds {
		row, ok := rowByUser[userId]
		if !ok {
			continue
		}
		input := inputById[userId]
		err := tx.WithContext(ctx).Model(row).Updates(map[string]interface{}{
			"PlanningHours":  input.PlanningHours,
			"FieldworkHours": input.FieldworkHours,
			"ExecutionHours": input.ExecutionHours,
			"ReviewHours":    input.ReviewHours,
			"ReportHours":    input.ReportHours,
			"FollowupHours":  input.FollowupHours,
		}).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", program.ID, "AuditProgram", "replaced auditor assignments of "+program.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetProgramUsers(ctx, program.ID)
}

func GetProgramUsers(ctx context.Context, programId int) ([]*AuditUser, error) {
	db := config.GetDB()
	var rows []*AuditUser
	err := db.WithContext(ctx).
		Where("id_audit_program = ?", programId).
		Preload("User").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// validateSubsetOfProgramPairs ensures every desired pair belongs to the
// program's scope.
func validateSubsetOfProgramPairs(tx *gorm.DB, programId int, desired []ProcessControlPair) error {
	var programRows []*AuditProcessControl
	if err := tx.Where("id_audit_program = ?", programId).Find(&programRows).Error; err != nil {
		return err
	}
	programSet := make(map[ProcessControlPair]bool, len(programRows))
	for _, row := range programRows {
		programSet[ProcessControlPair{ProcessId: row.IdProcess, ControlId: row.IdControl}] = true
	}
	for _, pair := range desired {
		if !programSet[pair] {
			return utils.ErrValidation("some selected process/control pairs are outside the audit program scope")
		}
	}
	return nil
}

// UpdateTestControls replaces a test's (process, control) subset. Pairs must
// belong to the program scope; removals referenced by findings abort the call.
func UpdateTestControls(ctx context.Context, testId int, desired []ProcessControlPair) ([]*AuditTestControl, error) {
	db := config.GetDB()

	test, err := utils.FetchModel[AuditTest](ctx, testId)
	if err != nil {
		return nil, err
	}
	program, err := utils.FetchModel[AuditProgram](ctx, test.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditAssociation", "UpdateTestControls")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()

	if err := validateSubsetOfProgramPairs(tx.WithContext(ctx), program.ID, desired); err != nil {
		tx.Rollback()
		return nil, err
	}

	var existingRows []*AuditTestControl
	if err := tx.WithContext(ctx).Where("id_audit_test = ?", test.ID).Find(&existingRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existing := make([]ProcessControlPair, 0, len(existingRows))
	rowByPair := make(map[ProcessControlPair]*AuditTestControl, len(existingRows))
	for _, row := range existingRows {
		pair := ProcessControlPair{ProcessId: row.IdProcess, ControlId: row.IdControl}
		existing = append(existing, pair)
		rowByPair[pair] = row
	}

	toAdd, toRemove := diffPairSets(existing, desired)

	for _, pair := range toRemove {
		var refs int64
		err := tx.WithContext(ctx).Model(&AuditFindingControl{}).
			Where("id_audit_test = ? AND id_process = ? AND id_control = ?", test.ID, pair.ProcessId, pair.ControlId).
			Count(&refs).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if refs > 0 {
			tx.Rollback()
			return nil, utils.ErrAssociationConflict("process/control pairs still referenced by findings cannot be removed")
		}
		if err := tx.WithContext(ctx).Delete(rowByPair[pair]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	for _, pair := range toAdd {
		row := AuditTestControl{
			IdAuditTest:    test.ID,
			IdAuditProgram: program.ID,
			IdProcess:      pair.ProcessId,
			IdControl:      pair.ControlId,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", test.ID, "AuditTest", "replaced control scope of "+test.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetTestControls(ctx, test.ID)
}

func GetTestControls(ctx context.Context, testId int) ([]*AuditTestControl, error) {
	db := config.GetDB()
	var rows []*AuditTestControl
	err := db.WithContext(ctx).
		Where("id_audit_test = ?", testId).
		Preload("Process").Preload("Control").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateTestUsers replaces a test's auditor set. Every auditor must already
// be assigned to the program.
func UpdateTestUsers(ctx context.Context, testId int, desiredIds []int) ([]*AuditTestUser, error) {
	db := config.GetDB()

	test, err := utils.FetchModel[AuditTest](ctx, testId)
	if err != nil {
		return nil, err
	}
	program, err := utils.FetchModel[AuditProgram](ctx, test.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	desiredIds = utils.UniqueSlice(desiredIds)

	release, err := utils.ProgramLock(ctx, program.ID, "auditAssociation", "UpdateTestUsers")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()

	if len(desiredIds) > 0 {
		var assigned int64
		err := tx.WithContext(ctx).Model(&AuditUser{}).
			Where("id_audit_program = ? AND id_user IN ?", program.ID, desiredIds).
			Count(&assigned).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if assigned != int64(len(desiredIds)) {
			tx.Rollback()
			return nil, utils.ErrValidation("some selected users are not assigned to the audit program")
		}
	}

	var existingRows []*AuditTestUser
	if err := tx.WithContext(ctx).Where("id_audit_test = ?", test.ID).Find(&existingRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existingIds := make([]int, 0, len(existingRows))
	rowByUser := make(map[int]*AuditTestUser, len(existingRows))
	for _, row := range existingRows {
		existingIds = append(existingIds, row.IdUser)
		rowByUser[row.IdUser] = row
	}

	// unchanged set: skip the write and the history row
	if utils.AreIntSlicesEqual(existingIds, desiredIds) {
		tx.Rollback()
		return GetTestUsers(ctx, test.ID)
	}

	toAdd, toRemove := utils.DiffIdSets(existingIds, desiredIds)
	for _, userId := range toRemove {
		if err := tx.WithContext(ctx).Delete(rowByUser[userId]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	for _, userId := range toAdd {
		row := AuditTestUser{IdAuditTest: test.ID, IdUser: userId}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", test.ID, "AuditTest", "replaced auditor assignments of "+test.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetTestUsers(ctx, test.ID)
}

func GetTestUsers(ctx context.Context, testId int) ([]*AuditTestUser, error) {
	db := config.GetDB()
	var rows []*AuditTestUser
	err := db.WithContext(ctx).
		Where("id_audit_test = ?", testId).
		Preload("User").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateFindingControls replaces a finding's (process, control) subset. Pairs
// must belong to the finding's test.
func UpdateFindingControls(ctx context.Context, findingId int, desired []ProcessControlPair) ([]*AuditFindingControl, error) {
	db := config.GetDB()

	finding, err := utils.FetchModel[AuditFinding](ctx, findingId)
	if err != nil {
		return nil, err
	}
	test, err := utils.FetchModel[AuditTest](ctx, finding.IdAuditTest)
	if err != nil {
		return nil, err
	}
	program, err := utils.FetchModel[AuditProgram](ctx, test.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditAssociation", "UpdateFindingControls")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()

	var testRows []*AuditTestControl
	if err := tx.WithContext(ctx).Where("id_audit_test = ?", test.ID).Find(&testRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	testSet := make(map[ProcessControlPair]bool, len(testRows))
	for _, row := range testRows {
		testSet[ProcessControlPair{ProcessId: row.IdProcess, ControlId: row.IdControl}] = true
	}
	for _, pair := range desired {
		if !testSet[pair] {
			tx.Rollback()
			return nil, utils.ErrValidation("some selected process/control pairs are outside the audit test scope")
		}
	}

	var existingRows []*AuditFindingControl
	if err := tx.WithContext(ctx).Where("id_audit_finding = ?", finding.ID).Find(&existingRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existing := make([]ProcessControlPair, 0, len(existingRows))
	rowByPair := make(map[ProcessControlPair]*AuditFindingControl, len(existingRows))
	for _, row := range existingRows {
		pair := ProcessControlPair{ProcessId: row.IdProcess, ControlId: row.IdControl}
		existing = append(existing, pair)
		rowByPair[pair] = row
	}

	toAdd, toRemove := diffPairSets(existing, desired)
	for _, pair := range toRemove {
		if err := tx.WithContext(ctx).Delete(rowByPair[pair]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	for _, pair := range toAdd {
		row := AuditFindingControl{
			IdAuditFinding: finding.ID,
			IdAuditTest:    test.ID,
			IdAuditProgram: program.ID,
			IdProcess:      pair.ProcessId,
			IdControl:      pair.ControlId,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", finding.ID, "AuditFinding", "replaced control scope of "+finding.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetFindingControls(ctx, finding.ID)
}

func GetFindingControls(ctx context.Context, findingId int) ([]*AuditFindingControl, error) {
	db := config.GetDB()
	var rows []*AuditFindingControl
	err := db.WithContext(ctx).
		Where("id_audit_finding = ?", findingId).
		Preload("Process").Preload("Control").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
