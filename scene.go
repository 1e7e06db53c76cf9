package lodestone

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SceneDef is the authoring format for a physics scene: static colliders and
// character spawn points, loaded from YAML and instantiated into a World.
type SceneDef struct {
	Name       string          `yaml:"name"`
	Colliders  []ColliderDef   `yaml:"colliders"`
	Characters []CharacterDef  `yaml:"characters"`
}

type ColliderDef struct {
	Name        string    `yaml:"name"`
	Shape       string    `yaml:"shape"` // box, sphere or capsule
	Position    Vec3Def   `yaml:"position"`
	HalfExtents Vec3Def   `yaml:"half_extents"`
	Radius      float32   `yaml:"radius"`
	HalfHeight  float32   `yaml:"half_height"`
	Layer       string    `yaml:"layer"`
	Mask        []string  `yaml:"mask"` // empty means collide with everything
}

type CharacterDef struct {
	Name                string   `yaml:"name"`
	Position            Vec3Def  `yaml:"position"`
	Radius              float32  `yaml:"radius"`
	HalfHeight          float32  `yaml:"half_height"`
	StepHeight          float32  `yaml:"step_height"`
	Speed               float32  `yaml:"speed"`
	JumpVelocity        float32  `yaml:"jump_velocity"`
	Layer               string   `yaml:"layer"`
	Mask                []string `yaml:"mask"`
}

type Vec3Def struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func (v Vec3Def) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

// LoadSceneDef parses a scene definition from YAML bytes.
func LoadSceneDef(data []byte) (*SceneDef, error) {
	var def SceneDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("scene: unmarshal: %w", err)
	}
	return &def, nil
}

// LoadSceneFile reads and parses a scene definition from disk.
func LoadSceneFile(path string) (*SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", path, err)
	}
	def, err := LoadSceneDef(data)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w", path, err)
	}
	return def, nil
}

// SceneInstance maps the authored names of one spawned scene to the live
// entity handles, so gameplay can find its entities after instantiation.
type SceneInstance struct {
	Id       string
	Name     string
	Entities map[string]EntityId
}

// Entity looks up a spawned entity by its authored name.
func (s *SceneInstance) Entity(name string) (EntityId, bool) {
	entity, ok := s.Entities[name]
	return entity, ok
}

// Spawn instantiates every collider and character of the definition into the
// world. Each instance gets a fresh id; the same SceneDef can be spawned
// more than once.
func (d *SceneDef) Spawn(w *World) (*SceneInstance, error) {
	instance := &SceneInstance{
		Id:       uuid.NewString(),
		Name:     d.Name,
		Entities: make(map[string]EntityId),
	}

	for _, def := range d.Colliders {
		collider, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("scene %s: collider %s: %w", d.Name, def.Name, err)
		}
		entity := w.SpawnBody(def.Position.Vec3(), collider)
		if def.Name != "" {
			instance.Entities[def.Name] = entity
		}
	}

	for _, def := range d.Characters {
		controller, movement, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("scene %s: character %s: %w", d.Name, def.Name, err)
		}
		entity := w.SpawnCharacter(def.Position.Vec3(), controller, movement)
		if def.Name != "" {
			instance.Entities[def.Name] = entity
		}
	}

	return instance, nil
}

func (d ColliderDef) build() (Collider, error) {
	var collider Collider
	switch strings.ToLower(d.Shape) {
	case "box":
		collider = NewBoxCollider(d.HalfExtents.Vec3())
	case "sphere":
		collider = NewSphereCollider(d.Radius)
	case "capsule":
		collider = NewCapsuleCollider(d.HalfHeight, d.Radius)
	default:
		return Collider{}, fmt.Errorf("unknown shape %q", d.Shape)
	}

	layer, mask, err := parseFiltering(d.Layer, d.Mask)
	if err != nil {
		return Collider{}, err
	}
	return collider.WithCollisionFiltering(layer, mask), nil
}

func (d CharacterDef) build() (CharacterController, CharacterMovement, error) {
	controller := NewCharacterController()
	if d.Radius > 0 || d.HalfHeight > 0 {
		controller = controller.WithSize(d.Radius, d.HalfHeight)
	}
	if d.StepHeight > 0 {
		controller = controller.WithStepHeight(d.StepHeight)
	}

	layer, mask, err := parseFiltering(d.Layer, d.Mask)
	if err != nil {
		return CharacterController{}, CharacterMovement{}, err
	}
	controller = controller.WithCollisionFiltering(layer, mask)

	movement := NewCharacterMovement()
	if d.Speed > 0 {
		movement = movement.WithSpeed(d.Speed)
	}
	if d.JumpVelocity > 0 {
		movement.JumpVelocity = d.JumpVelocity
	}
	return controller, movement, nil
}

func parseFiltering(layerName string, maskNames []string) (CollisionLayer, CollisionMask, error) {
	layer := LayerDefault
	if layerName != "" {
		parsed, err := parseLayer(layerName)
		if err != nil {
			return 0, 0, err
		}
		layer = parsed
	}

	if len(maskNames) == 0 {
		return layer, MaskAll, nil
	}
	mask := MaskNone
	for _, name := range maskNames {
		parsed, err := parseLayer(name)
		if err != nil {
			return 0, 0, err
		}
		mask = mask.WithLayer(parsed)
	}
	return layer, mask, nil
}

func parseLayer(name string) (CollisionLayer, error) {
	switch strings.ToLower(name) {
	case "default":
		return LayerDefault, nil
	case "player":
		return LayerPlayer, nil
	case "npc":
		return LayerNPC, nil
	case "environment":
		return LayerEnvironment, nil
	case "trigger":
		return LayerTrigger, nil
	case "projectile":
		return LayerProjectile, nil
	case "item":
		return LayerItem, nil
	case "terrain":
		return LayerTerrain, nil
	case "all":
		return LayerAll, nil
	default:
		return 0, fmt.Errorf("unknown collision layer %q", name)
	}
}
