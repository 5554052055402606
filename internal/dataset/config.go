package dataset

type Config struct {
	// Manifest optionally points at a YAML file naming the three input
	// files; when set it overrides the individual paths below.
	Manifest     string `envconfig:"FITMATCH_DATASET_MANIFEST"`
	TrainingFile string `envconfig:"FITMATCH_TRAINING_FILE" default:"dataset/train.csv"`
	IdealFile    string `envconfig:"FITMATCH_IDEAL_FILE" default:"dataset/ideal.csv"`
	TestFile     string `envconfig:"FITMATCH_TEST_FILE" default:"dataset/test.csv"`
}
