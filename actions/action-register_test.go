package actions

import (
	"bytes"
	"context"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/wbxdata/replipipe/constants"
)

var _ = Describe("ActionFuncs", func() {
	It("registers the same pairs for replicate and plan", func() {
		Expect(ActionFuncs[constants.ActionFuncsCommandPlan]).To(HaveLen(len(ActionFuncs[constants.ActionFuncsCommandReplicate])))
		for k := range ActionFuncs[constants.ActionFuncsCommandReplicate] {
			Expect(ActionFuncs[constants.ActionFuncsCommandPlan]).To(HaveKey(k))
		}
	})

	It("finds supported pairs", func() {
		_, err := GetReplicateAction(constants.ConnectionTypeMySql, constants.ConnectionTypeRedshift)
		Expect(err).NotTo(HaveOccurred())
		_, err = GetPlanAction(constants.ConnectionTypeNetezza, constants.ConnectionTypeSnowflake)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects warehouse sources", func() {
		_, err := GetReplicateAction(constants.ConnectionTypeSnowflake, constants.ConnectionTypeRedshift)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(`source type "snowflake"`))
	})

	It("knows the connection types used by the register", func() {
		Expect(IsSupportedConnectionType(constants.ConnectionTypeSqlServer)).To(BeTrue())
		Expect(IsSupportedConnectionType(constants.ConnectionTypeRedshift)).To(BeTrue())
		Expect(IsSupportedConnectionType("oracle")).To(BeFalse())
		Expect(GetSupportedReplicateConnectionTypes()).To(ContainSubstring("  mysql-redshift\n"))
	})

	It("launches the registered action", func() {
		called := false
		getter := func(s string, t string) (Action, error) {
			return Action{FnAction: func(ctx context.Context, cfg *ReplicateConfig, env *Environment) error {
				called = true
				return nil
			}}, nil
		}
		Expect(ActionLauncher(context.Background(), &ReplicateConfig{}, nil, getter, "mock", "mock")).To(Succeed())
		Expect(called).To(BeTrue())
		Expect(ActionLauncher(context.Background(), nil, nil, getter, "mock", "mock")).NotTo(Succeed())
	})
})

var _ = Describe("RunPlan", func() {
	var buf *bytes.Buffer
	var restore func()

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		restore = redirectStdout(buf)
	})

	AfterEach(func() {
		restore()
	})

	It("plans a bootstrap without staging anything", func() {
		env, w := newTestWorld()
		w.withSourceRows(3)
		w.withTarget(false, nil, 0)
		Expect(RunPlan(context.Background(), newTestConfig(), env)).To(Succeed())
		out := buf.String()
		Expect(out).To(ContainSubstring("mode: bootstrap"))
		Expect(strings.Count(out, "raw/pp_forms_log/pp_forms_log_")).To(BeNumerically(">=", 3))
		keys, err := w.stager.List(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(BeEmpty())
		for _, s := range w.target.Statements() {
			Expect(s).NotTo(HavePrefix("DROP"))
		}
	})

	It("plans an incremental run as json", func() {
		env, w := newTestWorld()
		w.withSourceRows(5)
		w.withTarget(true, int64(3), 2)
		cfg := newTestConfig()
		cfg.ExportConfigType = "json"
		Expect(RunPlan(context.Background(), cfg, env)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(`"mode": "incremental"`))
		Expect(buf.String()).To(ContainSubstring("new_pp_forms_log_records.csv"))
	})
})

var _ = Describe("RunJobFromFile", func() {
	It("requires a job file", func() {
		err := RunJobFromFile(context.Background(), &JobConfig{LogLevel: "error"}, nil)
		Expect(err).To(MatchError(ContainSubstring("job file")))
	})

	It("parses yaml and json jobs alike", func() {
		y := []byte(`
sourceConnection: aurora
sourceTable: wbx_data.pp_forms_log
targetConnection: rs
columns:
  fk: form_id
  text: form
  created: date_created
chunkSize: 500
bucket: wbx-data.redshift-unload
timeoutSeconds: 3600
`)
		j := []byte(`{"sourceConnection":"aurora","sourceTable":"wbx_data.pp_forms_log","targetConnection":"rs",
"columns":{"fk":"form_id","text":"form","created":"date_created"},"chunkSize":500,
"bucket":"wbx-data.redshift-unload","timeoutSeconds":3600}`)
		fromYaml, err := ParseJob(y)
		Expect(err).NotTo(HaveOccurred())
		fromJson, err := ParseJob(j)
		Expect(err).NotTo(HaveOccurred())
		Expect(fromYaml).To(Equal(fromJson))
		Expect(fromYaml.Columns.FK).To(Equal("form_id"))
		Expect(fromYaml.ChunkSize).To(Equal(int64(500)))
		Expect(fromYaml.TimeoutSeconds).To(Equal(3600))
	})

	It("rejects malformed jobs", func() {
		_, err := ParseJob([]byte("chunkSize: [1"))
		Expect(err).To(HaveOccurred())
	})
})
