package accessory

import (
	"github.com/korovkin/limiter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/homekit-bridges/homekit-alexa/internal/pkg/alexaapi"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/eligibility"
	"github.com/homekit-bridges/homekit-alexa/internal/pkg/hapkit"
)

const defaultMaxConcurrentBuilds = 10

// Factory builds the accessory list for one refresh cycle: discover,
// filter, then construct one accessory per eligible device.
type Factory struct {
	log          *logrus.Entry
	client       alexaapi.Client
	runtime      hapkit.Runtime
	predicates   []eligibility.Predicate
	initializers []ServiceInitializer
	televisions  bool
	maxBuilds    int
}

func NewFactory(
	log *logrus.Entry,
	client alexaapi.Client,
	runtime hapkit.Runtime,
	predicates []eligibility.Predicate,
	initializers []ServiceInitializer,
	televisions bool,
) *Factory {
	return &Factory{
		log:          log,
		client:       client,
		runtime:      runtime,
		predicates:   predicates,
		initializers: initializers,
		televisions:  televisions,
		maxBuilds:    defaultMaxConcurrentBuilds,
	}
}

func (f *Factory) WithMaxConcurrentBuilds(n int) *Factory {
	nf := *f
	nf.maxBuilds = n
	return &nf
}

// CreateAccessories runs one refresh cycle. A discovery failure aborts
// the cycle; a single device's construction failure is logged and that
// device skipped, so one malfunctioning device cannot block the rest.
func (f *Factory) CreateAccessories() ([]hapkit.Accessory, error) {
	devices, err := f.client.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}

	var eligible []alexaapi.Device
	for _, d := range devices {
		if eligibility.Eligible(d, f.predicates) {
			eligible = append(eligible, d)
		}
	}

	built := make([]hapkit.Accessory, len(eligible))
	limit := limiter.NewConcurrencyLimiter(f.maxBuilds)

	for i := range eligible {
		i := i
		device := eligible[i]

		limit.ExecuteWithTicket(func(ticket int) {
			acc, err := f.buildAccessory(device)
			if err != nil {
				f.log.WithError(err).Errorf("skipping device %s", device.SerialNumber)
				return
			}

			built[i] = acc
		})
	}
	limit.Wait()

	accessories := make([]hapkit.Accessory, 0, len(built))
	for _, acc := range built {
		if acc != nil {
			accessories = append(accessories, acc)
		}
	}

	return accessories, nil
}

func (f *Factory) buildAccessory(device alexaapi.Device) (hapkit.Accessory, error) {
	media, err := f.client.Media(device.SerialNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching media state for %s", device.SerialNumber)
	}

	category := hapkit.CategorySpeaker
	if f.televisions && alexaapi.IsDisplayFamily(device.DeviceFamily) {
		category = hapkit.CategoryTelevision
	}

	acc := f.runtime.NewAccessory(device.AccountName, f.runtime.DeriveID(device.SerialNumber), category)

	for _, init := range f.initializers {
		if !init.AppliesTo(device) {
			continue
		}

		if err := init.Attach(acc, device, media); err != nil {
			return nil, errors.Wrapf(err, "attaching %T", init)
		}
	}

	return acc, nil
}
